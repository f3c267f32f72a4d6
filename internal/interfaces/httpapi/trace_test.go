package httpapi

import (
	"context"
	"testing"
)

func TestIsHandlerSpan(t *testing.T) {
	cases := map[string]bool{
		"httpapi.Handler.SubmitPrediction": true,
		"httpapi.Handler.GetLeaderboard":   true,
		"httpapi.RequireAuth":              false,
		"httpapi.writeJSON":                false,
	}
	for name, want := range cases {
		if got := isHandlerSpan(name); got != want {
			t.Fatalf("isHandlerSpan(%q)=%v want=%v", name, got, want)
		}
	}
}

func TestStartSpan_NoParentIsNoop(t *testing.T) {
	ctx := context.Background()
	gotCtx, span := startSpan(ctx, "httpapi.Handler.GetFixture", attrFixtureID.String("fx-1"))
	if gotCtx != ctx {
		t.Fatalf("expected context to pass through untouched")
	}
	if span.SpanContext().IsValid() {
		t.Fatalf("expected noop span without a parent")
	}
}
