package jobqueue

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/riskibarqy/score-predictor/internal/platform/resilience"
)

type propagatePayload struct {
	FixtureID string `json:"fixture_id"`
}

func TestPublisher_Enqueue_SendsQStashHeaders(t *testing.T) {
	t.Parallel()

	var got *http.Request
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	publisher, err := NewPublisher(server.Client(), Config{
		BaseURL:          server.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://predictor.example.com/",
		Retries:          3,
		InternalJobToken: "job-token",
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	err = publisher.Enqueue(context.Background(), "v1/internal/jobs/propagate", propagatePayload{FixtureID: "1035042"}, 1500*time.Millisecond, "propagate:1035042")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if got.URL.Path != "/v2/publish/https://predictor.example.com/v1/internal/jobs/propagate" {
		t.Fatalf("unexpected publish path: %s", got.URL.Path)
	}
	headers := map[string]string{
		"Authorization":                        "Bearer qstash-token",
		"Upstash-Retries":                      "3",
		"Upstash-Delay":                        "2s",
		"Upstash-Deduplication-Id":             "propagate:1035042",
		"Upstash-Forward-X-Internal-Job-Token": "job-token",
	}
	for key, want := range headers {
		if value := got.Header.Get(key); value != want {
			t.Fatalf("header %s = %q, want %q", key, value, want)
		}
	}

	var decoded propagatePayload
	if err := sonic.Unmarshal(body, &decoded); err != nil || decoded.FixtureID != "1035042" {
		t.Fatalf("unexpected body %s err=%v", body, err)
	}
}

func TestPublisher_Enqueue_CircuitOpensOnTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	publisher, err := NewPublisher(server.Client(), Config{
		BaseURL:       server.URL,
		Token:         "qstash-token",
		TargetBaseURL: "https://predictor.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	for i := 0; i < 3; i++ {
		err = publisher.Enqueue(context.Background(), "/v1/internal/jobs/sync", nil, 0, "")
		if err == nil {
			t.Fatalf("attempt %d: expected error", i)
		}
	}
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls.Load())
	}
}

func TestPublisher_Enqueue_ClientErrorDoesNotTripCircuit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad destination", http.StatusBadRequest)
	}))
	defer server.Close()

	publisher, err := NewPublisher(server.Client(), Config{
		BaseURL:        server.URL,
		Token:          "qstash-token",
		TargetBaseURL:  "https://predictor.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute},
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	for i := 0; i < 2; i++ {
		err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/sync", nil, 0, "")
		if err == nil || errors.Is(err, resilience.ErrCircuitOpen) {
			t.Fatalf("attempt %d: expected plain 400 error, got %v", i, err)
		}
		if !strings.Contains(err.Error(), "status=400") {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestNewPublisher_ValidatesConfig(t *testing.T) {
	t.Parallel()

	cases := []Config{
		{BaseURL: "", Token: "t", TargetBaseURL: "https://a.example"},
		{BaseURL: "ftp://qstash", Token: "t", TargetBaseURL: "https://a.example"},
		{BaseURL: "https://qstash.upstash.io", Token: "t", TargetBaseURL: "https://"},
		{BaseURL: "https://qstash.upstash.io", TargetBaseURL: "https://a.example"},
	}
	for _, cfg := range cases {
		if _, err := NewPublisher(nil, cfg, logging.NewNop()); err == nil {
			t.Fatalf("expected config error for %+v", cfg)
		}
	}
}

func TestFormatDelayAndCurlPreview(t *testing.T) {
	t.Parallel()

	if got := formatDelay(0); got != "" {
		t.Fatalf("zero delay should be omitted, got %q", got)
	}
	if got := formatDelay(90 * time.Second); got != "90s" {
		t.Fatalf("unexpected delay %q", got)
	}

	preview := curlPreview(publishRequest{publishURL: "https://q/v2/publish/x", delay: "5s"}, 2, `{"a":"it's"}`, true)
	if strings.Contains(preview, "job-token") || !strings.Contains(preview, "Upstash-Forward-X-Internal-Job-Token: ***") {
		t.Fatalf("token must be masked: %s", preview)
	}
	if !strings.Contains(preview, `'{"a":"it'"'"'s"}'`) {
		t.Fatalf("body not shell quoted: %s", preview)
	}
}
