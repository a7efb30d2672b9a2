package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ChatMessage tests

func TestChatMessage_Sanitize(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "control characters stripped",
			content: "hello\x00wor\x07ld",
			want:    "helloworld",
		},
		{
			name:    "newlines and tabs survive",
			content: "line one\n\tline two",
			want:    "line one\n\tline two",
		},
		{
			name:    "long whitespace run collapsed to ten",
			content: "a" + strings.Repeat(" ", 25) + "b",
			want:    "a" + strings.Repeat(" ", 10) + "b",
		},
		{
			name:    "run of exactly ten preserved",
			content: "a" + strings.Repeat(" ", 10) + "b",
			want:    "a" + strings.Repeat(" ", 10) + "b",
		},
		{
			name:    "separate short runs untouched",
			content: "a  b  c",
			want:    "a  b  c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ChatMessage{Role: RoleUser, Content: tt.content}
			msg.Sanitize()
			assert.Equal(t, tt.want, msg.Content)
		})
	}
}

func TestChatMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     ChatMessage
		wantErr bool
	}{
		{
			name: "valid user message",
			msg:  ChatMessage{Role: RoleUser, Content: "hello"},
		},
		{
			name: "valid message with name",
			msg:  ChatMessage{Role: RoleAssistant, Content: "hi", Name: "agent_1"},
		},
		{
			name:    "empty content",
			msg:     ChatMessage{Role: RoleUser, Content: ""},
			wantErr: true,
		},
		{
			name:    "content over limit",
			msg:     ChatMessage{Role: RoleUser, Content: strings.Repeat("x", MaxMessageContentLength+1)},
			wantErr: true,
		},
		{
			// 60k CJK chars are 180k bytes; the bound counts characters.
			name: "multibyte content within limit",
			msg:  ChatMessage{Role: RoleUser, Content: strings.Repeat("世", 60000)},
		},
		{
			name: "multibyte content at limit",
			msg:  ChatMessage{Role: RoleUser, Content: strings.Repeat("世", MaxMessageContentLength)},
		},
		{
			name:    "multibyte content over limit",
			msg:     ChatMessage{Role: RoleUser, Content: strings.Repeat("世", MaxMessageContentLength+1)},
			wantErr: true,
		},
		{
			name:    "unknown role",
			msg:     ChatMessage{Role: "tool", Content: "hello"},
			wantErr: true,
		},
		{
			name:    "invalid name characters",
			msg:     ChatMessage{Role: RoleUser, Content: "hello", Name: "bad name!"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ChatCompletionRequest tests

func validRequest() *ChatCompletionRequest {
	return &ChatCompletionRequest{
		Model: "gpt-4o",
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: "You are helpful"},
			{Role: RoleUser, Content: "Hello"},
		},
	}
}

func TestChatCompletionRequest_Validate(t *testing.T) {
	req := validRequest()
	assert.NoError(t, req.Validate())
}

func TestChatCompletionRequest_Validate_FirstRoleAssistant(t *testing.T) {
	req := validRequest()
	req.Messages[0].Role = RoleAssistant

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first message role")
}

func TestChatCompletionRequest_Validate_Bounds(t *testing.T) {
	temp := 2.5
	topP := -0.1
	maxTokens := 0

	tests := []struct {
		name   string
		mutate func(*ChatCompletionRequest)
	}{
		{"missing model", func(r *ChatCompletionRequest) { r.Model = "" }},
		{"no messages", func(r *ChatCompletionRequest) { r.Messages = nil }},
		{"too many messages", func(r *ChatCompletionRequest) {
			msgs := make([]ChatMessage, MaxMessages+1)
			msgs[0] = ChatMessage{Role: RoleUser, Content: "hi"}
			for i := 1; i < len(msgs); i++ {
				msgs[i] = ChatMessage{Role: RoleAssistant, Content: "hi"}
			}
			r.Messages = msgs
		}},
		{"temperature out of range", func(r *ChatCompletionRequest) { r.Temperature = &temp }},
		{"top_p out of range", func(r *ChatCompletionRequest) { r.TopP = &topP }},
		{"max_tokens below one", func(r *ChatCompletionRequest) { r.MaxTokens = &maxTokens }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestChatCompletionRequest_Validate_Tools(t *testing.T) {
	t.Run("duplicate tool names rejected", func(t *testing.T) {
		req := validRequest()
		req.Tools = []Tool{
			{Function: ToolFunction{Name: "search"}},
			{Function: ToolFunction{Name: "search"}},
		}
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate tool name")
	})

	t.Run("tool name must start with a letter", func(t *testing.T) {
		req := validRequest()
		req.Tools = []Tool{{Function: ToolFunction{Name: "1search"}}}
		assert.Error(t, req.Validate())
	})

	t.Run("too many tools", func(t *testing.T) {
		req := validRequest()
		for i := 0; i <= MaxTools; i++ {
			req.Tools = append(req.Tools, Tool{Function: ToolFunction{Name: "tool_" + strings.Repeat("a", i+1)}})
		}
		assert.Error(t, req.Validate())
	})

	t.Run("valid tool list", func(t *testing.T) {
		req := validRequest()
		req.Tools = []Tool{
			{Type: "function", Function: ToolFunction{Name: "search", Description: "web search"}},
			{Function: ToolFunction{Name: "calc", Parameters: json.RawMessage(`{"type":"object"}`)}},
		}
		assert.NoError(t, req.Validate())
	})
}

// Usage tests

func TestUsage_Validate(t *testing.T) {
	valid := Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	assert.NoError(t, valid.Validate())

	mismatch := Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 14}
	assert.Error(t, mismatch.Validate())

	negative := Usage{PromptTokens: -1, CompletionTokens: 1, TotalTokens: 0}
	assert.Error(t, negative.Validate())
}

// ChatCompletionResponse tests

func TestChatCompletionResponse_Validate(t *testing.T) {
	resp := ChatCompletionResponse{
		ID:      "chatcmpl-abc",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   "gpt-4o",
		Choices: []Choice{
			{Index: 0, Message: ChatMessage{Role: RoleAssistant, Content: "hi"}, FinishReason: FinishReasonStop},
		},
		Usage: Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2},
	}
	assert.NoError(t, resp.Validate())

	resp.Choices = nil
	assert.Error(t, resp.Validate())
}

// APIKey tests

func TestNewAPIKey(t *testing.T) {
	key := NewAPIKey("mel_abcdefgh", "hashed", 50)

	assert.Equal(t, "mel_abcdefgh", key.KeyID)
	assert.Equal(t, "hashed", key.KeyHash)
	assert.True(t, key.IsActive)
	assert.Equal(t, 50, key.RateLimit)
	assert.Nil(t, key.LastUsed)
	assert.False(t, key.CreatedAt.IsZero())
}

func TestNewAPIKey_DefaultRateLimit(t *testing.T) {
	key := NewAPIKey("mel_abcdefgh", "hashed", 0)
	assert.Equal(t, DefaultRateLimit, key.RateLimit)
}

func TestAPIKey_Lifecycle(t *testing.T) {
	key := NewAPIKey("mel_abcdefgh", "hashed", 0)

	now := time.Now()
	key.Touch(now)
	require.NotNil(t, key.LastUsed)
	assert.Equal(t, now.UTC(), *key.LastUsed)

	key.Deactivate()
	assert.False(t, key.IsActive)
}

func TestAPIKey_InfoNeverExposesHash(t *testing.T) {
	key := NewAPIKey("mel_abcdefgh", "supersecret-hash", 0)

	data, err := json.Marshal(key.Info())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "supersecret-hash")

	// The stored record itself must not serialize the hash either.
	raw, err := json.Marshal(key)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "supersecret-hash")
}

func TestAPIKey_TableName(t *testing.T) {
	assert.Equal(t, "api_keys", APIKey{}.TableName())
}
