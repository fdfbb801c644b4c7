// Package llm defines the interface to the external intelligence provider.
// The coordination core treats the provider as opaque: prompt in, text or
// structured data out.
package llm

import "context"

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single unit of provider communication.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest encapsulates the input for the provider.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`

	// AllowedTools restricts which tools the provider may use, if any.
	AllowedTools []string `json:"allowed_tools,omitempty"`

	// MaxTurns bounds the provider's internal reasoning turns.
	MaxTurns int `json:"max_turns,omitempty"`
}

// ChatResponse encapsulates the output from the provider.
type ChatResponse struct {
	Content string         `json:"content"`
	Data    map[string]any `json:"data,omitempty"`
	Usage   Usage          `json:"usage"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider defines the interface for the external reasoning backend.
type Provider interface {
	// Chat sends a prompt to the provider and returns the response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Prompt is a convenience wrapper for single-prompt calls.
func Prompt(ctx context.Context, provider Provider, model, text string) (string, error) {
	resp, err := provider.Chat(ctx, ChatRequest{
		Model:    model,
		Messages: []Message{{Role: RoleUser, Content: text}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
