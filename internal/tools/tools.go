package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/linker"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/metrics"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/storage"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/validate"
)

// Store is the subset of the persistent store the tool handlers need.
type Store interface {
	UpsertThought(t models.Thought) error
	Search(text string) ([]models.Thought, error)
	UpsertConnection(c models.Connection) error
	UpsertSession(s models.Session) error
}

// Linker creates keyword-overlap connections for a new thought.
type Linker interface {
	Link(t models.Thought) []linker.Link
}

// ClusterEngine rebuilds the stored cluster set.
type ClusterEngine interface {
	Recompute() ([]models.Cluster, error)
}

// MindTools holds references needed by the mind_* tool handlers.
type MindTools struct {
	Store    Store
	Linker   Linker
	Clusters ClusterEngine
	Logger   *zap.Logger

	// Position places new thoughts. Defaults to storage.GeneratePosition.
	Position func() models.Position
}

type handlerFunc func(ctx context.Context, args json.RawMessage) (string, error)

func (t *MindTools) handlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		ToolLog:       t.log,
		ToolConnect:   t.connect,
		ToolRecall:    t.recall,
		ToolSummarize: t.summarize,
	}
}

// Call runs the named tool with raw JSON arguments. Every failure, including an
// unknown or empty name, comes back as an error result rather than a Go error.
func (t *MindTools) Call(ctx context.Context, name string, args json.RawMessage) *mcp.CallToolResult {
	logger := t.logger()

	if name == "" {
		metrics.ToolCalls.WithLabelValues("", metrics.OutcomeError).Inc()
		return toolError("Error: Missing tool name")
	}
	h, ok := t.handlers()[name]
	if !ok {
		metrics.ToolCalls.WithLabelValues("unknown", metrics.OutcomeError).Inc()
		return toolError("Error: Unknown tool: %s", name)
	}

	text, err := h(ctx, args)
	metrics.ToolCalls.WithLabelValues(name, metrics.Outcome(err)).Inc()
	if err != nil {
		logger.Info("tool call failed", zap.String("tool", name), zap.Error(err))
		return toolError("Error: %s", err)
	}
	logger.Debug("tool call", zap.String("tool", name))
	return toolText(text)
}

// Register adds every mind tool to srv. Arguments reach Call unvalidated by
// the SDK, so both transports share the same validation and error text.
func (t *MindTools) Register(srv *mcp.Server) {
	for _, def := range Definitions() {
		name := def.Name
		srv.AddTool(def, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args json.RawMessage
			if req.Params != nil {
				args = req.Params.Arguments
			}
			return t.Call(ctx, name, args), nil
		})
	}
}

func (t *MindTools) logger() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}

func (t *MindTools) position() models.Position {
	if t.Position == nil {
		return storage.GeneratePosition()
	}
	return t.Position()
}

// decodeArgs unmarshals args into dst and validates it. Absent or null
// arguments decode as an empty object.
func decodeArgs(args json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("Invalid arguments: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("Invalid arguments: %v", err)
	}
	return nil
}

// preview returns the first n runes of s.
func preview(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func percent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

func bullets(lines []string) string {
	return strings.Join(lines, "\n")
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
