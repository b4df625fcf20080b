package server

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/malbeclabs/mysql-mcp/internal/metrics"
)

// dispatch runs a tool body and turns its outcome into a text result. Errors
// and panics become "Error executing <tool>: <message>" so the session keeps
// serving.
func (s *Server) dispatch(ctx context.Context, tool string, fn func(ctx context.Context) (string, error)) (res *mcp.CallToolResult) {
	startTime := time.Now()
	status := "success"

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("mcp/tool: panic while executing tool", "tool", tool, "panic", r, "stack", string(debug.Stack()))
			status = "error"
			res = errorResult(tool, fmt.Errorf("panic: %v", r))
		}
		metrics.ToolCallsTotal.WithLabelValues(tool, status).Inc()
		metrics.ToolCallDuration.WithLabelValues(tool).Observe(time.Since(startTime).Seconds())
	}()

	text, err := fn(ctx)
	if err != nil {
		s.log.Error("mcp/tool: error executing tool", "tool", tool, "error", err)
		status = "error"
		return errorResult(tool, err)
	}
	return textResult(text)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(tool string, err error) *mcp.CallToolResult {
	res := textResult(fmt.Sprintf("Error executing %s: %s", tool, err.Error()))
	res.IsError = true
	return res
}
