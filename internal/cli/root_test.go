package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/estate-listings/internal/config"
	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/events"
	"github.com/msomdec/estate-listings/internal/media"
	"github.com/msomdec/estate-listings/internal/ratelimit"
	"github.com/msomdec/estate-listings/internal/repository/sqlite"
	"github.com/msomdec/estate-listings/internal/service"
)

const testSecret = "cli-test-secret-0123456789abcdefghij"

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	// Flags are package variables; reset them between runs.
	flagDBDriver, flagDBPath, flagDBURL = "", "", ""

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func testEnv(t *testing.T) string {
	t.Helper()
	t.Chdir(t.TempDir()) // keep godotenv away from any real .env
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	return filepath.Join(t.TempDir(), "cli.db")
}

func TestRootHelp(t *testing.T) {
	_, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"db", "db-driver", "db-url"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s flag to exist", name)
		}
	}

	serve, _, err := root.Find([]string{"serve"})
	if err != nil {
		t.Fatalf("find serve: %v", err)
	}
	if serve.Flags().Lookup("port") == nil {
		t.Fatal("expected serve --port flag")
	}
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"serve rejects args", []string{"serve", "extra"}},
		{"migrate rejects args", []string{"migrate", "extra"}},
		{"promote needs two args", []string{"promote", "a@example.com"}},
		{"version rejects args", []string{"version", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(tt.args...); err == nil {
				t.Fatal("expected an argument error")
			}
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != Version {
		t.Fatalf("expected %q, got %q", Version, out)
	}
}

func TestMigrate(t *testing.T) {
	dbPath := testEnv(t)

	out, err := executeCommand("migrate", "--db", dbPath)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "migrations applied (sqlite)") || !strings.Contains(out, "schema version 1") {
		t.Fatalf("unexpected output %q", out)
	}

	// Running again is a no-op.
	if _, err := executeCommand("migrate", "--db", dbPath); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestMigrate_InvalidConfig(t *testing.T) {
	testEnv(t)
	t.Setenv("JWT_SECRET", "short")

	_, err := executeCommand("migrate")
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestPromote(t *testing.T) {
	dbPath := testEnv(t)
	ctx := context.Background()

	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	auth := service.NewAuthService(db.Users(), testSecret, 4, time.Hour)
	if _, err := auth.Register(ctx, service.RegisterInput{Name: "Boss", Email: "boss@example.com", Password: "password123"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	db.Close()

	out, err := executeCommand("promote", "boss@example.com", "admin", "--db", dbPath)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !strings.Contains(out, "boss@example.com is now admin") {
		t.Fatalf("unexpected output %q", out)
	}

	db, err = sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer db.Close()
	user, err := db.Users().GetByEmail(ctx, "boss@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %s", user.Role)
	}

	if _, err := executeCommand("promote", "nobody@example.com", "agent", "--db", dbPath); err == nil {
		t.Fatal("expected error for unknown user")
	}
	if _, err := executeCommand("promote", "boss@example.com", "overlord", "--db", dbPath); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestTelemetryConfig(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
		insecure bool
	}{
		{"", "", false},
		{"collector:4318", "collector:4318", false},
		{"http://collector:4318/", "collector:4318", true},
		{"https://otel.example.com", "otel.example.com", false},
	}
	for _, tt := range tests {
		got := telemetryConfig(&config.Config{OTelEndpoint: tt.endpoint})
		if got.Endpoint != tt.want || got.Insecure != tt.insecure {
			t.Errorf("%q: got %+v", tt.endpoint, got)
		}
	}
}

func TestLimitWindow(t *testing.T) {
	if got := limitWindow(0, 10); got != time.Minute {
		t.Errorf("zero rate: expected 1m, got %s", got)
	}
	if got := limitWindow(0.5, 10); got != 20*time.Second {
		t.Errorf("expected 20s, got %s", got)
	}
}

func TestNewAuthLimiter(t *testing.T) {
	limiter, closeFn := newAuthLimiter(t.Context(), &config.Config{AuthRate: 1, AuthBurst: 2})
	defer closeFn()
	if _, ok := limiter.(*ratelimit.TokenBucket); !ok {
		t.Fatalf("expected in-memory limiter without redis, got %T", limiter)
	}

	limiter, closeFn = newAuthLimiter(t.Context(), &config.Config{AuthRate: 1, AuthBurst: 2, RedisAddr: "127.0.0.1:6379"})
	defer closeFn()
	if _, ok := limiter.(*ratelimit.Redis); !ok {
		t.Fatalf("expected redis limiter, got %T", limiter)
	}
}

func TestNewUploaderAndPublisher(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "u.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	u, files, err := newUploader(&config.Config{MediaBaseURL: "http://localhost:8000"}, db)
	if err != nil {
		t.Fatalf("newUploader: %v", err)
	}
	if _, ok := u.(*media.Blob); !ok || files == nil {
		t.Fatalf("expected local blob uploader, got %T", u)
	}

	u, files, err = newUploader(&config.Config{Cloudinary: media.CloudinaryConfig{
		CloudName: "demo", APIKey: "key", APISecret: "secret",
	}}, db)
	if err != nil {
		t.Fatalf("newUploader cloudinary: %v", err)
	}
	if _, ok := u.(*media.Cloudinary); !ok || files != nil {
		t.Fatalf("expected cloudinary uploader without local files, got %T", u)
	}

	p, err := newPublisher(&config.Config{})
	if err != nil {
		t.Fatalf("newPublisher: %v", err)
	}
	if _, ok := p.(events.Log); !ok {
		t.Fatalf("expected log publisher, got %T", p)
	}

	p, err = newPublisher(&config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "leads"})
	if err != nil {
		t.Fatalf("newPublisher kafka: %v", err)
	}
	defer p.Close()
	if _, ok := p.(*events.Kafka); !ok {
		t.Fatalf("expected kafka publisher, got %T", p)
	}
}
