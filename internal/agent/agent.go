package agent

import (
	"context"
	"encoding/json"
	"io"

	"github.com/malbeclabs/mysql-mcp/internal/mcp/client"
)

// ToolClient lists and calls MCP tools.
type ToolClient interface {
	ListTools(ctx context.Context) ([]client.Tool, error)
	CallToolText(ctx context.Context, name string, args map[string]any) (string, bool, error)
}

// Message is one entry of the conversation in a provider-specific form.
type Message interface {
	ToParam() any
}

// ContentBlock is one block of a model response.
type ContentBlock interface {
	AsText() (text string, ok bool)
	AsToolUse() (id, name string, input []byte, ok bool)
}

type ToolUse struct {
	ID    string
	Name  string
	Input map[string]any
}

type RunResult struct {
	FinalText string
	// FullConversation holds every message exchanged, including tool calls
	// and results, so a caller can continue the conversation.
	FullConversation []Message
	// ToolCalls counts tool invocations across all rounds.
	ToolCalls int
}

// Agent runs a tool-calling loop against an LLM.
type Agent interface {
	Run(ctx context.Context, tools ToolClient, initialMessages []Message, output io.Writer) (*RunResult, error)
}

// extractToolUses collects well-formed tool use requests from a response.
func extractToolUses(content []ContentBlock) []ToolUse {
	var toolUses []ToolUse
	for _, blk := range content {
		id, name, inputBytes, ok := blk.AsToolUse()
		if !ok || id == "" || name == "" {
			continue
		}
		var input map[string]any
		if err := json.Unmarshal(inputBytes, &input); err != nil {
			continue
		}
		toolUses = append(toolUses, ToolUse{
			ID:    id,
			Name:  name,
			Input: input,
		})
	}
	return toolUses
}
