package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultMaxTokens = 4096
	defaultMaxSteps  = 10
)

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = errors.New("anthropic: api key not configured")

// Client is a streaming Anthropic Claude API client with tool-use support.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
	apiKey string
}

// Message is a flat role/content conversation message.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Tool describes a callable tool exposed to the model. Execute runs the tool
// and returns a JSON-marshalable result; a returned error marks the tool
// result as errored but does not abort the turn.
type Tool struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
	Execute     func(ctx context.Context, input json.RawMessage) (any, error)
}

// StreamRequest configures one streamed model turn.
type StreamRequest struct {
	System    string
	Messages  []Message
	Tools     []Tool
	MaxTokens int
	// MaxSteps caps the number of model/tool round trips to bound cost and
	// prevent runaway tool-call loops. Defaults to 10.
	MaxSteps int
}

// StreamHandler receives incremental events as the model produces them.
type StreamHandler interface {
	// OnTextDelta is called for each streamed text fragment.
	OnTextDelta(text string)
	// OnToolInputStart is called when the model opens a tool call, before
	// its input has finished streaming in.
	OnToolInputStart(name string)
	// OnToolCall is called when a tool call's input is fully available.
	OnToolCall(id, name string, input json.RawMessage)
	// OnToolResult is called with the executed tool's output. errText is
	// non-empty when execution failed.
	OnToolResult(id, name string, output json.RawMessage, errText string)
}

// TurnResult summarizes a completed streamed turn.
type TurnResult struct {
	// Text is the full assistant text accumulated across all steps.
	Text string
	// Steps is the number of model calls made.
	Steps int
}

// NewClient creates a new Anthropic client. An empty API key yields a client
// whose Stream fails with ErrNotConfigured; startup is not blocked.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
		apiKey: apiKey,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Stream runs one model turn, executing tool calls between steps, until the
// model stops requesting tools or MaxSteps is reached. Events are delivered
// to handler in production order.
func (c *Client) Stream(ctx context.Context, req *StreamRequest, handler StreamHandler) (*TurnResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	maxSteps := req.MaxSteps
	if maxSteps == 0 {
		maxSteps = defaultMaxSteps
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	messages := convertMessages(req.Messages)
	tools := convertTools(req.Tools)

	result := &TurnResult{}
	for step := 0; step < maxSteps; step++ {
		params := anthropic.MessageNewParams{
			Model:     c.model,
			MaxTokens: int64(maxTokens),
			Messages:  messages,
		}
		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.System}}
		}
		if len(tools) > 0 {
			params.Tools = tools
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfAuto: &anthropic.ToolChoiceAutoParam{},
			}
		}

		msg, err := c.streamStep(ctx, params, handler)
		if err != nil {
			return nil, err
		}
		result.Steps++

		for _, block := range msg.Content {
			if text, ok := block.AsAny().(anthropic.TextBlock); ok {
				result.Text += text.Text
			}
		}

		toolUses := extractToolUses(msg.Content)
		if len(toolUses) == 0 || msg.StopReason != anthropic.StopReasonToolUse {
			return result, nil
		}

		// Feed tool results back as the next user turn.
		messages = append(messages, msg.ToParam())
		resultBlocks := make([]anthropic.ContentBlockParamUnion, 0, len(toolUses))
		for _, tu := range toolUses {
			handler.OnToolCall(tu.ID, tu.Name, tu.Input)
			output, errText := c.executeTool(ctx, req.Tools, tu)
			handler.OnToolResult(tu.ID, tu.Name, output, errText)
			resultBlocks = append(resultBlocks,
				anthropic.NewToolResultBlock(tu.ID, string(output), errText != ""))
		}
		messages = append(messages, anthropic.NewUserMessage(resultBlocks...))
	}

	return result, nil
}

// streamStep runs a single streaming model call, forwarding text deltas and
// tool-input lifecycle events, and returns the accumulated message.
func (c *Client) streamStep(ctx context.Context, params anthropic.MessageNewParams, handler StreamHandler) (*anthropic.Message, error) {
	stream := c.client.Messages.NewStreaming(ctx, params)

	msg := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return nil, fmt.Errorf("accumulate event: %w", err)
		}

		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if tu, ok := eventVariant.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
				handler.OnToolInputStart(tu.Name)
			}
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := eventVariant.Delta.AsAny().(anthropic.TextDelta); ok {
				handler.OnTextDelta(delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	return &msg, nil
}

// executeTool runs the named tool and returns its JSON output. Execution
// failures become structured error payloads; the turn continues either way.
func (c *Client) executeTool(ctx context.Context, tools []Tool, tu toolUse) (json.RawMessage, string) {
	for _, t := range tools {
		if t.Name != tu.Name {
			continue
		}
		out, err := t.Execute(ctx, tu.Input)
		if err != nil {
			payload, _ := json.Marshal(map[string]string{"error": err.Error()})
			return payload, err.Error()
		}
		payload, err := json.Marshal(out)
		if err != nil {
			return json.RawMessage(`{"error":"unserializable tool result"}`), "unserializable tool result"
		}
		return payload, ""
	}
	return json.RawMessage(`{"error":"unknown tool"}`), "unknown tool: " + tu.Name
}

type toolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

func extractToolUses(content []anthropic.ContentBlockUnion) []toolUse {
	var uses []toolUse
	for _, block := range content {
		if tu, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			uses = append(uses, toolUse{ID: tu.ID, Name: tu.Name, Input: tu.Input})
		}
	}
	return uses
}

func convertMessages(messages []Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		// The API rejects empty text blocks.
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case "assistant":
			params = append(params,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params = append(params,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return params
}

func convertTools(tools []Tool) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		params = append(params, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.Properties,
					Required:   t.Required,
				},
			},
		})
	}
	return params
}
