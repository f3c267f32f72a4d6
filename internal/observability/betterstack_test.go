package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/score-predictor/internal/config"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
)

type capturedBatches struct {
	mu      sync.Mutex
	auth    string
	batches [][]map[string]any
}

func newBetterStackServer(t *testing.T) (*httptest.Server, *capturedBatches) {
	t.Helper()

	captured := &capturedBatches{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var batch []map[string]any
		if err := sonic.Unmarshal(body, &batch); err != nil {
			t.Errorf("decode batch: %v (%s)", err, body)
		}
		captured.mu.Lock()
		captured.auth = r.Header.Get("Authorization")
		captured.batches = append(captured.batches, batch)
		captured.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func TestBetterStackCore_ShipsBatchedEntries(t *testing.T) {
	t.Parallel()

	server, captured := newBetterStackServer(t)
	core, shutdown, err := NewBetterStackCore(config.Config{
		BetterStackEndpoint: server.URL,
		BetterStackToken:    "secret-token",
		BetterStackTimeout:  2 * time.Second,
		BetterStackMinLevel: logging.LevelWarn,
		ServiceName:         "score-predictor-api",
		AppEnv:              config.EnvDev,
	})
	if err != nil {
		t.Fatalf("build betterstack core: %v", err)
	}

	logger := logging.NewNop().Tee(core)
	logger.InfoContext(context.Background(), "below threshold")
	logger.WarnContext(context.Background(), "propagation partial", "fixture_id", "fx-1", "failed", 1)
	logger.ErrorContext(context.Background(), "sync failed", "kind", "results")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	captured.mu.Lock()
	defer captured.mu.Unlock()
	if captured.auth != "Bearer secret-token" {
		t.Fatalf("unexpected authorization header: %q", captured.auth)
	}
	var entries []map[string]any
	for _, batch := range captured.batches {
		entries = append(entries, batch...)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 shipped entries, got %d", len(entries))
	}
	if entries[0]["message"] != "propagation partial" || entries[0]["fixture_id"] != "fx-1" {
		t.Fatalf("unexpected first entry: %v", entries[0])
	}
	if entries[1]["service"] != "score-predictor-api" || entries[1]["level"] != "error" {
		t.Fatalf("unexpected second entry: %v", entries[1])
	}
}

func TestBetterStackCore_RequiresEndpoint(t *testing.T) {
	if _, _, err := NewBetterStackCore(config.Config{BetterStackEndpoint: "  "}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
	if got := normalizeBetterStackEndpoint("in.logs.betterstack.com"); got != "https://in.logs.betterstack.com" {
		t.Fatalf("unexpected normalized endpoint: %q", got)
	}
}
