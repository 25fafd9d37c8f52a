// Package ratelimit provides per-tool token bucket rate limiting for MCP tools.
package ratelimit

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*rate.Limiter

// Per sets a limit of n events per period.
func Per(n int, period time.Duration) rate.Limit {
	return rate.Every(period / time.Duration(n))
}

// NewToolLimiters creates the default set of per-tool rate limiters.
// Simulate and export both generate walks, so they get the tightest budgets.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"stairwalk_simulate": rate.NewLimiter(Per(20, time.Minute), 3),
		"stairwalk_history":  rate.NewLimiter(Per(60, time.Minute), 10),
		"stairwalk_show":     rate.NewLimiter(Per(60, time.Minute), 10),
		"stairwalk_export":   rate.NewLimiter(Per(10, time.Minute), 2),
	}
}

// CheckLimit checks the rate limit for a given tool name.
// Returns nil if allowed, or an error if rate limited.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.Allow() {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}

	return nil
}
