package ai

// Role is the sender of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) String() string { return string(r) }

// Message is one entry of a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// IsValid reports whether the message has a known role and content.
func (m Message) IsValid() bool {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
		return m.Content != ""
	default:
		return false
	}
}

// CompletionRequest is the body of a chat-completions call.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// CompletionOption configures a CompletionRequest.
type CompletionOption func(*CompletionRequest)

func WithTemperature(t float64) CompletionOption {
	return func(r *CompletionRequest) { r.Temperature = &t }
}

func WithMaxTokens(n int) CompletionOption {
	return func(r *CompletionRequest) { r.MaxTokens = n }
}

func NewCompletionRequest(model string, messages []Message, opts ...CompletionOption) *CompletionRequest {
	req := &CompletionRequest{Model: model, Messages: messages}
	for _, opt := range opts {
		opt(req)
	}
	return req
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}
