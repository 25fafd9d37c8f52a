package ratelimit

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestPer(t *testing.T) {
	got := Per(60, time.Minute)
	if got != rate.Limit(1) {
		t.Errorf("Per(60, time.Minute) = %v, want 1", got)
	}
}

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()

	for _, tool := range []string{"stairwalk_simulate", "stairwalk_history", "stairwalk_show", "stairwalk_export"} {
		if limiters[tool] == nil {
			t.Errorf("missing limiter for %s", tool)
		}
	}
}

func TestCheckLimit_Burst(t *testing.T) {
	limiters := ToolLimiters{
		"tool": rate.NewLimiter(Per(1, time.Hour), 2),
	}

	for i := 0; i < 2; i++ {
		if err := CheckLimit(limiters, "tool"); err != nil {
			t.Fatalf("request %d should be allowed (within burst): %v", i+1, err)
		}
	}

	if err := CheckLimit(limiters, "tool"); err == nil {
		t.Error("request after burst exhaustion should be rejected")
	}
}

func TestCheckLimit_IndependentTools(t *testing.T) {
	limiters := ToolLimiters{
		"a": rate.NewLimiter(Per(1, time.Hour), 1),
		"b": rate.NewLimiter(Per(1, time.Hour), 1),
	}

	if err := CheckLimit(limiters, "a"); err != nil {
		t.Fatalf("first call to a: %v", err)
	}
	if err := CheckLimit(limiters, "a"); err == nil {
		t.Error("a should be exhausted")
	}
	if err := CheckLimit(limiters, "b"); err != nil {
		t.Errorf("b should be allowed (independent bucket): %v", err)
	}
}

func TestCheckLimit_UnknownTool(t *testing.T) {
	if err := CheckLimit(NewToolLimiters(), "not_configured"); err != nil {
		t.Errorf("unconfigured tool should always be allowed: %v", err)
	}
}
