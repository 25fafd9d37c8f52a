package mcp

import (
	"time"
)

// auditTool records one tool invocation on the operational log.
// params holds argument values worth keeping for diagnosis.
func (s *Server) auditTool(toolName string, start time.Time, err error, params map[string]any) {
	attrs := []any{
		"tool", toolName,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	for k, v := range params {
		attrs = append(attrs, k, v)
	}

	if err != nil {
		s.logger.Warn("tool call failed", append(attrs, "error", err)...)
		return
	}
	s.logger.Info("tool call", attrs...)
}
