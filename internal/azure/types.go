package azure

// Wire types for the Azure OpenAI chat completions and legacy
// completions APIs. Field names follow the service JSON exactly;
// conversion to Go-friendly shapes happens at this boundary only.

// Message is one entry in a chat conversation.
//
// Role is one of "system", "user", "assistant", or "tool". Assistant
// messages that request tools carry ToolCalls; tool messages carry the
// ToolCallID of the request they answer. The loop never fabricates or
// drops that linkage.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a model-emitted request to execute a named local function.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and its arguments. The service
// sends arguments as a JSON-encoded string, not an object.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSpec advertises a callable function to the model.
type ToolSpec struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec is the name, description, and JSON-schema parameters of
// an advertised function.
type FunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatRequest is the chat completions request payload. The deployment
// is addressed in the URL, not the body, so there is no model field.
type ChatRequest struct {
	Messages         []Message  `json:"messages"`
	MaxTokens        int        `json:"max_tokens,omitempty"`
	Temperature      float64    `json:"temperature,omitempty"`
	TopP             float64    `json:"top_p,omitempty"`
	FrequencyPenalty float64    `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64    `json:"presence_penalty,omitempty"`
	Stop             []string   `json:"stop,omitempty"`
	Tools            []ToolSpec `json:"tools,omitempty"`
	ToolChoice       string     `json:"tool_choice,omitempty"`
}

// ChatResponse is the chat completions response payload.
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one candidate completion.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage reports token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is the legacy text completions request payload.
type CompletionRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// CompletionResponse is the legacy text completions response payload.
type CompletionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   Usage              `json:"usage"`
}

// CompletionChoice is one candidate text completion.
type CompletionChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
}

// errorEnvelope is the service's error response shape.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
