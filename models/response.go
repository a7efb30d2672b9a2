package models

import "fmt"

// Usage represents token accounting for a completion
type Usage struct {
	PromptTokens     int `json:"prompt_tokens" validate:"gte=0"`
	CompletionTokens int `json:"completion_tokens" validate:"gte=0"`
	TotalTokens      int `json:"total_tokens" validate:"gte=0"`
}

// Validate checks the token accounting invariant
func (u *Usage) Validate() error {
	if u.PromptTokens < 0 || u.CompletionTokens < 0 || u.TotalTokens < 0 {
		return fmt.Errorf("token counts must be non-negative")
	}
	if u.TotalTokens != u.PromptTokens+u.CompletionTokens {
		return fmt.Errorf("total_tokens %d != prompt_tokens %d + completion_tokens %d",
			u.TotalTokens, u.PromptTokens, u.CompletionTokens)
	}
	return nil
}

// FinishReason values reported on a choice
const (
	FinishReasonStop      = "stop"
	FinishReasonLength    = "length"
	FinishReasonToolCalls = "tool_calls"
)

// Choice represents a single completion choice
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatCompletionResponse is the canonical normalized response returned
// to callers regardless of which backend produced it
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices" validate:"required,min=1"`
	Usage   Usage    `json:"usage"`
}

// Validate checks the structural invariants of a normalized response
func (r *ChatCompletionResponse) Validate() error {
	if len(r.Choices) == 0 {
		return fmt.Errorf("response must carry at least one choice")
	}
	return r.Usage.Validate()
}
