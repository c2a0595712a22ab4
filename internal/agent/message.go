// Package agent manages conversational exchanges with the remote
// browser-automation agent: an ordered, append-only log of message parts
// streamed back from the agent endpoint.
package agent

import "encoding/json"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Part types.
const (
	PartText = "text"
	PartTool = "tool"
)

// Tool part states, in the order a tool invocation moves through them.
const (
	ToolInputStreaming  = "input-streaming"
	ToolInputAvailable  = "input-available"
	ToolOutputAvailable = "output-available"
	ToolOutputError     = "output-error"
)

// MessagePart is one unit of assistant (or user) output. Text parts carry
// only Text; tool parts carry the tool fields. Seq is assigned on append
// and is strictly increasing within a message.
type MessagePart struct {
	Seq  int    `json:"seq"`
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	ToolName  string          `json:"toolName,omitempty"`
	State     string          `json:"state,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	ErrorText string          `json:"errorText,omitempty"`
}

// Message is one conversational turn. Parts are append-only and keep their
// arrival order; parts of different messages are never merged.
type Message struct {
	ID    string        `json:"id"`
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// Text concatenates the message's text parts in order.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}
