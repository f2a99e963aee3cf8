package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/msomdec/estate-listings/internal/config"
	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/events"
	"github.com/msomdec/estate-listings/internal/handler"
	"github.com/msomdec/estate-listings/internal/logging"
	"github.com/msomdec/estate-listings/internal/media"
	"github.com/msomdec/estate-listings/internal/ratelimit"
	"github.com/msomdec/estate-listings/internal/service"
	"github.com/msomdec/estate-listings/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Run migrations, then serve the REST API until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on, overrides PORT")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logging.Setup(cfg.Development())

	shutdownTracing, err := telemetry.Init(ctx, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied", "driver", cfg.DatabaseDriver)

	uploader, files, err := newUploader(cfg, db)
	if err != nil {
		return err
	}

	limiter, closeLimiter := newAuthLimiter(ctx, cfg)
	defer closeLimiter()

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	authService := service.NewAuthService(db.Users(), cfg.JWTSecret, cfg.BcryptCost, cfg.TokenTTL)
	propertyService := service.NewPropertyService(db.Properties(), uploader, cfg.NumberPolicy)
	leadService := service.NewLeadService(db.Leads(), db.Properties(), publisher)

	router := handler.NewRouter(handler.Deps{
		Auth:        authService,
		Properties:  propertyService,
		Leads:       leadService,
		DB:          db,
		Files:       files,
		AuthLimiter: limiter,
		CORSOrigins: cfg.CORSOrigins,
		Development: cfg.Development(),
		ServiceName: cfg.OTelServiceName,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// telemetryConfig accepts the endpoint either as host:port or as a URL; a
// plain http:// URL turns off TLS for the exporter.
func telemetryConfig(cfg *config.Config) telemetry.Config {
	endpoint := strings.TrimSpace(cfg.OTelEndpoint)
	insecure := false
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = strings.TrimPrefix(endpoint, "http://")
		insecure = true
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	return telemetry.Config{
		ServiceName: cfg.OTelServiceName,
		Endpoint:    strings.TrimRight(endpoint, "/"),
		Insecure:    insecure,
	}
}

// newUploader prefers Cloudinary when credentials are set and otherwise
// keeps images in the database, served under /media. The returned FileStore
// is nil when Cloudinary is used, which leaves /media unrouted.
func newUploader(cfg *config.Config, db domain.Database) (media.Uploader, domain.FileStore, error) {
	if cfg.Cloudinary.Enabled() {
		cld, err := media.NewCloudinary(cfg.Cloudinary)
		if err != nil {
			return nil, nil, fmt.Errorf("configure cloudinary: %w", err)
		}
		slog.Info("image uploads go to cloudinary", "folder", cfg.Cloudinary.Folder)
		return cld, nil, nil
	}
	slog.Info("image uploads stored locally", "base_url", cfg.MediaBaseURL)
	return media.NewBlob(db.FileStore(), cfg.MediaBaseURL), db.FileStore(), nil
}

// newAuthLimiter builds the per-IP limiter for the auth endpoints. With
// REDIS_ADDR set, the window is shared across instances and the in-memory
// bucket only covers Redis outages.
func newAuthLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func()) {
	local := ratelimit.NewTokenBucket(ctx, cfg.AuthRate, float64(cfg.AuthBurst))
	if cfg.RedisAddr == "" {
		return local, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	slog.Info("auth rate limit shared through redis", "addr", cfg.RedisAddr)
	limiter := ratelimit.NewRedis(client, cfg.AuthBurst, limitWindow(cfg.AuthRate, cfg.AuthBurst), local)
	return limiter, func() {
		if err := client.Close(); err != nil {
			slog.Warn("closing redis client", "error", err)
		}
	}
}

// limitWindow is the time a token bucket of the same rate needs to refill
// burst tokens, so both limiters admit roughly the same traffic.
func limitWindow(rate float64, burst int) time.Duration {
	if rate <= 0 {
		return time.Minute
	}
	return time.Duration(float64(burst) / rate * float64(time.Second))
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Log{}, nil
	}
	k, err := events.NewKafka(events.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
	if err != nil {
		return nil, fmt.Errorf("configure kafka: %w", err)
	}
	slog.Info("lead events published to kafka", "topic", cfg.KafkaTopic)
	return k, nil
}
