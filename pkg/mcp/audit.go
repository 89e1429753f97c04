package mcp

import (
	"context"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/logging"
)

// maxPreviewLength bounds the result text echoed into the log.
const maxPreviewLength = 200

// AuditLogger records every MCP tool call with its arguments, duration and outcome.
type AuditLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewAuditLogger creates an AuditLogger writing to logger.
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogger{
		logger: logger.Named("audit"),
	}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *AuditLogger) afterCallTool(_ context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	fields := a.callFields(id, req)

	if result != nil {
		fields = append(fields, zap.Bool("is_error", result.IsError))
		if preview := resultPreview(result); preview != "" {
			fields = append(fields, zap.String("preview", preview))
		}
	}

	if result != nil && result.IsError {
		a.logger.Warn("MCP tool call rejected", fields...)
		return
	}
	a.logger.Info("MCP tool call", fields...)
}

func (a *AuditLogger) onError(_ context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}

	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	fields := append(a.callFields(id, req), zap.String("error", logging.SanitizeError(err)))
	a.logger.Error("MCP tool call failed", fields...)
}

func (a *AuditLogger) callFields(id any, req *mcplib.CallToolRequest) []zap.Field {
	startTime, _ := a.loadAndDeleteStart(id)
	return []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Any("arguments", req.GetArguments()),
		zap.Duration("duration", time.Since(startTime)),
	}
}

func (a *AuditLogger) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Now(), false
}

// resultPreview returns a truncated copy of the first text content.
func resultPreview(result *mcplib.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return logging.TruncateString(tc.Text, maxPreviewLength)
		}
	}
	return ""
}
