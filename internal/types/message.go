package types

import (
	"encoding/json"
	"strings"
)

// Tool call part states, mirroring the lifecycle the UI renders:
// input still streaming in, input complete, output produced, or errored.
const (
	ToolStateInputStreaming  = "input-streaming"
	ToolStateInputAvailable  = "input-available"
	ToolStateOutputAvailable = "output-available"
	ToolStateOutputError     = "output-error"
)

// PartTypeText and PartTypeFile identify non-tool part types. Tool call
// parts use a "tool-" prefix followed by the tool name (e.g. "tool-weather").
const (
	PartTypeText = "text"
	PartTypeFile = "file"

	toolPartPrefix = "tool-"
)

// Part is one typed piece of a rich chat message: text, an uploaded file
// reference, or a tool call in some lifecycle state.
type Part struct {
	Type string `json:"type"`

	// Text part.
	Text string `json:"text,omitempty"`

	// File part.
	MediaType string `json:"mediaType,omitempty"`
	URL       string `json:"url,omitempty"`
	Filename  string `json:"filename,omitempty"`

	// Tool call part.
	State     string          `json:"state,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	ErrorText string          `json:"errorText,omitempty"`
}

// IsToolCall reports whether the part is a tool call part.
func (p Part) IsToolCall() bool {
	return strings.HasPrefix(p.Type, toolPartPrefix)
}

// ToolName returns the tool name of a tool call part, or "" for other parts.
func (p Part) ToolName() string {
	if !p.IsToolCall() {
		return ""
	}
	return strings.TrimPrefix(p.Type, toolPartPrefix)
}

// ToolPartType builds the part type string for a tool call part.
func ToolPartType(toolName string) string {
	return toolPartPrefix + toolName
}

// ChatMessage is a richly-typed message as submitted by the UI. Content
// carries plain text; Parts carries the typed part list. Either may be set.
type ChatMessage struct {
	ID      string      `json:"id,omitempty"`
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`
	Parts   []Part      `json:"parts,omitempty"`
}

// Text returns the textual content of the message: the plain content when no
// parts are present, otherwise all text parts concatenated in order.
func (m ChatMessage) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Complete reports whether the message is usable as model context. User
// messages are always complete; an assistant message is incomplete if any of
// its tool call parts has not yet produced output (an interrupted stream).
func (m ChatMessage) Complete() bool {
	if m.Role != RoleAssistant {
		return true
	}
	for _, p := range m.Parts {
		if p.IsToolCall() && p.State != ToolStateOutputAvailable {
			return false
		}
	}
	return true
}

// ModelMessage is the flat role/content form sent to the language model.
type ModelMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}
