package logging

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestNewDevMode(t *testing.T) {
	var text, structured bytes.Buffer
	logger := New(true, &text, &structured)

	logger.Debug("test debug")
	if !strings.Contains(text.String(), "test debug") {
		t.Error("expected debug message visible in dev mode")
	}
	if structured.Len() != 0 {
		t.Error("dev mode should not write JSON")
	}
}

func TestNewProdMode(t *testing.T) {
	var text, structured bytes.Buffer
	logger := New(false, &text, &structured)

	logger.Debug("hidden")
	logger.Info("visible", "k", "v")

	if strings.Contains(text.String(), "hidden") {
		t.Error("debug should be suppressed in prod mode")
	}
	if !strings.Contains(text.String(), "visible") {
		t.Error("expected text output")
	}
	if !strings.Contains(structured.String(), `"msg":"visible"`) {
		t.Errorf("expected JSON output, got %q", structured.String())
	}
}

func TestRequestLogger(t *testing.T) {
	buf := captureDefault(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RequestID(RequestLogger(inner))

	req := httptest.NewRequest("GET", "/api/properties", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	output := buf.String()
	for _, want := range []string{"GET", "/api/properties", "status=200", "request_id="} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in log: %s", want, output)
		}
	}
}

func TestRequestLoggerSkipsHealth(t *testing.T) {
	buf := captureDefault(t)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))

	if buf.Len() > 0 {
		t.Error("expected no log for /healthz")
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		buf := captureDefault(t)
		handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))

		if !strings.Contains(buf.String(), tt.level) {
			t.Errorf("status %d: expected %s in %q", tt.status, tt.level, buf.String())
		}
	}
}
