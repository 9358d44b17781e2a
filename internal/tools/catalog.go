package tools

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
)

// Tool names.
const (
	ToolLog       = "mind_log"
	ToolConnect   = "mind_connect"
	ToolRecall    = "mind_recall"
	ToolSummarize = "mind_summarize_session"
)

// DefaultRecallLimit is used when mind_recall is called without a limit.
const DefaultRecallLimit = 10

// Definitions returns the tool catalog in listing order.
func Definitions() []*mcp.Tool {
	return []*mcp.Tool{
		{
			Name:        ToolLog,
			Description: "Log a thought, concept, or important point to The Mind. Use this to record key ideas, decisions, or insights during conversation. The thought will appear as a glowing node in 3D space.",
			InputSchema: object([]string{"content", "category", "importance"}, map[string]*jsonschema.Schema{
				"content": str("The thought or concept to record"),
				"category": {
					Type:        "string",
					Enum:        categoryEnum(),
					Description: "Category of the thought (affects color in visualization)",
				},
				"importance": {
					Type:        "number",
					Minimum:     float(0),
					Maximum:     float(1),
					Description: "How significant is this thought (0-1, affects node size)",
				},
			}),
		},
		{
			Name:        ToolConnect,
			Description: "Create a connection between two concepts in The Mind. Use when you notice relationships between ideas. The connection appears as a glowing line between nodes.",
			InputSchema: object([]string{"from", "to", "reason"}, map[string]*jsonschema.Schema{
				"from":   str("First concept (use exact text of a logged thought)"),
				"to":     str("Second concept (use exact text of a logged thought)"),
				"reason": str("Why these concepts connect"),
			}),
		},
		{
			Name:        ToolRecall,
			Description: "Search The Mind for relevant past thoughts and connections. Use to find related ideas from previous conversations.",
			InputSchema: object([]string{"query"}, map[string]*jsonschema.Schema{
				"query": str("What to search for"),
				"limit": {
					Type:        "number",
					Default:     json.RawMessage("10"),
					Description: "Maximum number of results to return",
				},
			}),
		},
		{
			Name:        ToolSummarize,
			Description: "Generate a summary of the current conversation for The Mind. Use at the end of conversations to create a record.",
			InputSchema: object([]string{"title", "summary"}, map[string]*jsonschema.Schema{
				"title":   str("Brief title for the session"),
				"summary": str("Summary of what was discussed"),
			}),
		},
	}
}

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func str(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func float(f float64) *float64 { return &f }

func categoryEnum() []any {
	out := make([]any, len(models.Categories))
	for i, c := range models.Categories {
		out[i] = c
	}
	return out
}
