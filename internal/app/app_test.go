package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/riskibarqy/score-predictor/internal/config"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
)

func TestNewContainer_InMemory(t *testing.T) {
	t.Setenv("APP_ENV", config.EnvDev)
	t.Setenv("DB_URL", "")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	container, err := NewContainer(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	defer container.Close()

	if container.Sync != nil {
		t.Fatalf("expected no sync service without the feed client")
	}

	srv, err := container.NewHTTPServer()
	if err != nil {
		t.Fatalf("build server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/fixtures/upcoming", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected seeded fixtures to be listed, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "score_predictor_http_requests_total") {
		t.Fatalf("expected metrics exposition, got %d", rec.Code)
	}
}

func TestNewContainer_FeedProviderWithoutFeed(t *testing.T) {
	cfg := config.Config{ResultsProvider: config.ResultsProviderFeed, PropagationWorkers: 1}
	if _, err := NewContainer(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for feed provider without feed client")
	}
}
