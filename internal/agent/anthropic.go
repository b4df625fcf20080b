package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/errgroup"

	"github.com/malbeclabs/mysql-mcp/internal/mcp/client"
	"github.com/malbeclabs/mysql-mcp/internal/mcp/server"
)

const (
	defaultMaxTokens        = 4096
	defaultMaxRounds        = 8
	defaultMaxToolResultLen = 20000
	defaultToolConcurrency  = 4

	truncationNoticeEstimate = 120
	truncationSearchWindow   = 500
)

// MessageCreator creates model responses. *anthropic.MessageService
// satisfies it.
type MessageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicAgentConfig struct {
	Logger           *slog.Logger
	Messages         MessageCreator
	Model            anthropic.Model
	MaxTokens        int64
	MaxRounds        int
	MaxToolResultLen int
	System           string
	// KeepToolResultsRounds limits how many rounds of tool results stay in
	// the history sent to the model. Zero keeps all of them.
	KeepToolResultsRounds int
}

func (cfg *AnthropicAgentConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Messages == nil {
		return errors.New("messages client is required")
	}
	if cfg.Model == "" {
		return errors.New("model is required")
	}
	if cfg.MaxTokens < 0 || cfg.MaxRounds < 0 || cfg.MaxToolResultLen < 0 || cfg.KeepToolResultsRounds < 0 {
		return errors.New("limits must not be negative")
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.MaxRounds == 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	if cfg.MaxToolResultLen == 0 {
		cfg.MaxToolResultLen = defaultMaxToolResultLen
	}
	return nil
}

// AnthropicAgent answers questions with Claude models, calling MySQL tools
// over MCP as the model requests them.
type AnthropicAgent struct {
	log *slog.Logger
	cfg *AnthropicAgentConfig
}

func NewAnthropicAgent(cfg *AnthropicAgentConfig) (*AnthropicAgent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}
	return &AnthropicAgent{log: cfg.Logger, cfg: cfg}, nil
}

// UserMessage wraps a plain text prompt as a conversation message.
func UserMessage(text string) Message {
	return anthropicMessage{msg: anthropic.NewUserMessage(anthropic.NewTextBlock(text))}
}

type anthropicMessage struct {
	msg anthropic.MessageParam
}

func (m anthropicMessage) ToParam() any {
	return m.msg
}

type anthropicContentBlock struct {
	blk anthropic.ContentBlockUnion
}

func (b anthropicContentBlock) AsText() (string, bool) {
	if b.blk.Type != "text" || b.blk.Text == "" {
		return "", false
	}
	return b.blk.Text, true
}

func (b anthropicContentBlock) AsToolUse() (string, string, []byte, bool) {
	if b.blk.Type != "tool_use" {
		return "", "", nil, false
	}
	tu := b.blk.AsToolUse()
	if tu.ID == "" || tu.Name == "" {
		return "", "", nil, false
	}
	return tu.ID, tu.Name, tu.Input, true
}

func contentBlocks(resp *anthropic.Message) []ContentBlock {
	blocks := make([]ContentBlock, len(resp.Content))
	for i, blk := range resp.Content {
		blocks[i] = anthropicContentBlock{blk}
	}
	return blocks
}

// Run executes the tool calling loop.
func (a *AnthropicAgent) Run(ctx context.Context, tools ToolClient, initialMessages []Message, output io.Writer) (*RunResult, error) {
	msgs := make([]anthropic.MessageParam, 0, len(initialMessages))
	for _, msg := range initialMessages {
		param, ok := msg.ToParam().(anthropic.MessageParam)
		if !ok {
			return nil, fmt.Errorf("unsupported message type %T", msg.ToParam())
		}
		msgs = append(msgs, param)
	}

	conversation := make([]Message, len(initialMessages))
	copy(conversation, initialMessages)

	mcpTools, err := tools.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tools: %w", err)
	}
	toolParams := toAnthropicTools(mcpTools)

	var toolResultIndices []int
	toolCalls := 0

	for round := 0; round < a.cfg.MaxRounds; round++ {
		roundNum := round + 1
		a.log.Info("agent: starting round", "round", roundNum, "max_rounds", a.cfg.MaxRounds)

		resp, err := a.cfg.Messages.New(ctx, a.params(msgs, toolParams))
		if err != nil {
			return nil, fmt.Errorf("failed to get response: %w", err)
		}
		a.log.Debug("agent: received response", "round", roundNum, "content_blocks", len(resp.Content), "stop_reason", resp.StopReason)

		assistant := resp.ToParam()
		msgs = append(msgs, assistant)
		conversation = append(conversation, anthropicMessage{msg: assistant})

		toolUses := extractToolUses(contentBlocks(resp))
		if len(toolUses) == 0 {
			if resp.StopReason == "max_tokens" {
				a.log.Warn("agent: response truncated by max_tokens, requesting summary", "max_tokens", a.cfg.MaxTokens)
				prompt := anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(SummaryPromptFormat, a.cfg.MaxTokens)))
				summary, err := a.cfg.Messages.New(ctx, a.params(append(msgs, prompt), toolParams))
				if err != nil {
					return nil, fmt.Errorf("response was truncated and summary request failed: %w", err)
				}
				conversation = append(conversation, anthropicMessage{msg: prompt}, anthropicMessage{msg: summary.ToParam()})
				resp = summary
			}
			a.log.Info("agent: no tool calls, returning final response", "round", roundNum)
			return &RunResult{
				FinalText:        writeText(output, resp),
				FullConversation: conversation,
				ToolCalls:        toolCalls,
			}, nil
		}

		a.log.Info("agent: executing tool calls", "round", roundNum, "count", len(toolUses))
		results := executeTools(ctx, a.log, tools, toolUses, a.cfg.MaxToolResultLen)
		toolCalls += len(toolUses)

		resultMsg := anthropic.NewUserMessage(results...)
		msgs = append(msgs, resultMsg)
		conversation = append(conversation, anthropicMessage{msg: resultMsg})
		toolResultIndices = append(toolResultIndices, len(msgs)-1)

		if a.cfg.KeepToolResultsRounds > 0 && len(toolResultIndices) > a.cfg.KeepToolResultsRounds {
			msgs, toolResultIndices = trimOldToolResults(msgs, toolResultIndices, a.cfg.KeepToolResultsRounds)
		}

		if round == a.cfg.MaxRounds-1 {
			a.log.Info("agent: last round ended with tool calls, requesting final answer")
			prompt := anthropic.NewUserMessage(anthropic.NewTextBlock(FinalizationPrompt))
			final, err := a.cfg.Messages.New(ctx, a.params(append(msgs, prompt), toolParams))
			if err != nil {
				return nil, fmt.Errorf("exceeded maximum rounds (%d) and final response request failed: %w", a.cfg.MaxRounds, err)
			}
			conversation = append(conversation, anthropicMessage{msg: prompt}, anthropicMessage{msg: final.ToParam()})
			return &RunResult{
				FinalText:        writeText(output, final),
				FullConversation: conversation,
				ToolCalls:        toolCalls,
			}, nil
		}
	}

	return nil, fmt.Errorf("exceeded maximum rounds (%d)", a.cfg.MaxRounds)
}

func (a *AnthropicAgent) params(msgs []anthropic.MessageParam, tools []anthropic.ToolUnionParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		Messages:  msgs,
		Tools:     tools,
	}
	if a.cfg.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: a.cfg.System}}
	}
	return params
}

// writeText joins the text blocks of a response, echoing them to output
// when it is set.
func writeText(output io.Writer, resp *anthropic.Message) string {
	var sb strings.Builder
	for _, blk := range contentBlocks(resp) {
		if text, ok := blk.AsText(); ok {
			sb.WriteString(text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if output != nil && text != "" {
		fmt.Fprintln(output, text)
	}
	return text
}

// toAnthropicTools converts MCP tools to Anthropic tool parameters.
func toAnthropicTools(tools []client.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		props, _ := t.InputSchema["properties"].(map[string]any)
		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.Opt(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: props,
				Required:   requiredFields(t.InputSchema["required"]),
			},
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}

func requiredFields(v any) []string {
	switch r := v.(type) {
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, f := range r {
			if s, ok := f.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// executeTools runs tool calls concurrently and returns their result blocks
// in request order. Tool failures are reported to the model as error
// results rather than aborting the run.
func executeTools(ctx context.Context, log *slog.Logger, tools ToolClient, toolUses []ToolUse, maxLen int) []anthropic.ContentBlockParamUnion {
	results := make([]anthropic.ContentBlockParamUnion, len(toolUses))

	var g errgroup.Group
	g.SetLimit(defaultToolConcurrency)
	for i, tu := range toolUses {
		g.Go(func() error {
			log.Debug("agent: calling tool", "name", tu.Name, "id", tu.ID)
			out, isErr, err := tools.CallToolText(ctx, tu.Name, tu.Input)
			if err != nil {
				out = fmt.Sprintf("%s\n(error: %v)", out, err)
				isErr = true
			}

			limit := maxLen
			if tu.Name == server.SchemaToolName {
				limit = maxLen * 2
			}
			if limit > 0 && len(out) > limit {
				truncated := truncateAtBoundary(out, limit)
				log.Warn("agent: truncated large tool result", "tool", tu.Name, "original_len", len(out), "truncated_len", len(truncated))
				out = truncated
			}
			results[i] = anthropic.NewToolResultBlock(tu.ID, out, isErr)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// truncateAtBoundary cuts text to at most maxLen bytes, preferring a line
// break or a closing bracket, and appends a truncation notice.
func truncateAtBoundary(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}

	cutoff := maxLen - truncationNoticeEstimate
	if cutoff < 0 {
		cutoff = maxLen / 2
	}

	boundary := cutoff
	window := min(truncationSearchWindow, cutoff)
	for i := cutoff; i > cutoff-window && i > 0; i-- {
		if text[i] == '\n' || text[i] == ']' || text[i] == '}' {
			boundary = i + 1
			break
		}
		if boundary == cutoff && (text[i] == ',' || text[i] == ' ') {
			boundary = i + 1
		}
	}

	truncated := text[:boundary]
	notice := fmt.Sprintf("\n\n[Result truncated from %d to %d characters to avoid token limits]", len(text), len(truncated))
	if len(truncated)+len(notice) > maxLen {
		if cut := maxLen - len(notice); cut > 0 {
			truncated = text[:cut]
		}
	}
	return truncated + notice
}

// trimOldToolResults drops all but the last keepRounds tool rounds from the
// history. A round is the assistant tool_use message and the user
// tool_result message after it; messages before the first round are kept.
func trimOldToolResults(msgs []anthropic.MessageParam, toolResultIndices []int, keepRounds int) ([]anthropic.MessageParam, []int) {
	if len(toolResultIndices) <= keepRounds {
		return msgs, toolResultIndices
	}

	firstRound := max(toolResultIndices[0]-1, 0)
	keepFrom := max(toolResultIndices[len(toolResultIndices)-keepRounds]-1, 0)

	trimmed := make([]anthropic.MessageParam, 0, len(msgs)-(keepFrom-firstRound))
	trimmed = append(trimmed, msgs[:firstRound]...)
	trimmed = append(trimmed, msgs[keepFrom:]...)

	removed := keepFrom - firstRound
	kept := make([]int, 0, keepRounds)
	for _, idx := range toolResultIndices[len(toolResultIndices)-keepRounds:] {
		kept = append(kept, idx-removed)
	}
	return trimmed, kept
}
