// Package copilot turns free-text instructions into visitor lifecycle
// operations through a two-call function-calling conversation with a
// language model.
package copilot

import "context"

// Role is a conversation participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the conversation handed to the model.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolCall is an action the model selected. Arguments is raw JSON.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolParam describes one string argument of a tool.
type ToolParam struct {
	Name        string
	Description string
	Required    bool
	Enum        []string
}

// Tool is a callable action offered to the model.
type Tool struct {
	Name        string
	Description string
	Params      []ToolParam
}

// FunctionCallRequest is the first round trip: the model may answer with a
// tool call instead of text.
type FunctionCallRequest struct {
	Messages        []Message
	Tools           []Tool
	DisableParallel bool
}

// Completion is the model's answer to a FunctionCallRequest. When ToolCalls
// is empty, Content is a plain reply.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

//go:generate mockgen -source=llm.go -destination=mocks/llm_mocks.go -package=mocks LLM

// LLM is the language model collaborator.
type LLM interface {
	FunctionCall(ctx context.Context, req FunctionCallRequest) (*Completion, error)
	Chat(ctx context.Context, messages []Message) (string, error)
}
