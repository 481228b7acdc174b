// Package core provides the conversation loop, tool resolution and message
// persistence for the weather CLI agent.
package core

// Message roles as they appear on the wire and in the message store.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a message in the conversation history.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall represents a tool invocation requested by the assistant.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the name and arguments for a tool call.
// Arguments is a JSON object encoded as a string, as the API sends it.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool represents a tool definition sent to the API.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction contains the metadata for a tool.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatRequest is the request body for the chat completions API.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

// ChatResponse is the response from the chat completions API.
type ChatResponse struct {
	Choices []Choice `json:"choices"`
}

// Choice represents a single choice in the API response.
type Choice struct {
	Message Message `json:"message"`
}

// ToolResult is the outcome of executing one tool call. Serialized as a whole
// it becomes the content of the persisted tool-role message, so a result
// record always names the call it answers.
type ToolResult struct {
	ToolCallID string            `json:"toolCallId"`
	ToolName   string            `json:"toolName"`
	Args       map[string]string `json:"args"`
	Result     map[string]string `json:"result"`
}

// StoredToolCall is the persisted form of a tool call: arguments are decoded
// into a map rather than kept as the wire's JSON string.
type StoredToolCall struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments"`
}

// User identifies a returning user. Users are created out of band; the core
// only looks them up.
type User struct {
	ID    int64
	Email string
	Name  string
}

// StoredMessage is one persisted conversation turn.
type StoredMessage struct {
	ID        int64
	UserID    int64
	Role      string
	Content   string
	ToolCalls []StoredToolCall // nil unless the assistant turn requested tools
}
