package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MessageRole represents the author of a chat message
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Request bounds enforced before any upstream dispatch
const (
	MinMessages             = 1
	MaxMessages             = 100
	MaxMessageContentLength = 100000
	MaxTools                = 20

	// maxWhitespaceRun is the longest run of consecutive whitespace
	// characters preserved by sanitization.
	maxWhitespaceRun = 10
)

var (
	// messageNameRegex validates the optional sender name on a message
	messageNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	// toolNameRegex validates tool function names
	toolNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
)

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    MessageRole `json:"role" validate:"required,oneof=system user assistant"`
	Content string      `json:"content" validate:"required,max=100000"`
	Name    string      `json:"name,omitempty"`
}

// Sanitize normalizes the message content: control characters are
// stripped (newlines and tabs survive) and whitespace runs longer than
// ten characters are collapsed to ten.
func (m *ChatMessage) Sanitize() {
	m.Content = sanitizeContent(m.Content)
}

// Validate checks the structural invariants of a single message
func (m *ChatMessage) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if m.Content == "" {
		return fmt.Errorf("message content cannot be empty")
	}
	// Rune count, not byte length: multibyte content is bounded by
	// characters, matching the max tag on the field.
	if utf8.RuneCountInString(m.Content) > MaxMessageContentLength {
		return fmt.Errorf("message content exceeds %d characters", MaxMessageContentLength)
	}
	if m.Name != "" && !messageNameRegex.MatchString(m.Name) {
		return fmt.Errorf("invalid message name: %q", m.Name)
	}
	return nil
}

func sanitizeContent(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	run := 0
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		if unicode.IsSpace(r) {
			run++
			if run > maxWhitespaceRun {
				continue
			}
		} else {
			run = 0
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToolFunction describes a callable function exposed to the model
type ToolFunction struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Tool represents a tool declaration in a chat completion request.
// A missing Type defaults to "function" at the wire boundary.
type Tool struct {
	Type     string       `json:"type,omitempty"`
	Function ToolFunction `json:"function" validate:"required"`
}

// Validate checks the structural invariants of a single tool
func (t *Tool) Validate() error {
	if !toolNameRegex.MatchString(t.Function.Name) {
		return fmt.Errorf("invalid tool name: %q", t.Function.Name)
	}
	return nil
}

// ChatCompletionRequest is the canonical inbound request shape shared by
// every provider adapter
type ChatCompletionRequest struct {
	Model       string        `json:"model" validate:"required"`
	Messages    []ChatMessage `json:"messages" validate:"required,min=1,max=100,dive"`
	Tools       []Tool        `json:"tools,omitempty" validate:"omitempty,max=20,dive"`
	WebSearch   bool          `json:"web_search,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty" validate:"omitempty,gte=1"`
	Temperature *float64      `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TopP        *float64      `json:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	Stream      bool          `json:"stream,omitempty"`
}

// Sanitize normalizes all message contents in place
func (r *ChatCompletionRequest) Sanitize() {
	for i := range r.Messages {
		r.Messages[i].Sanitize()
	}
}

// Validate checks every structural invariant of the request. A request
// failing any check must be rejected before an adapter is invoked.
func (r *ChatCompletionRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("model is required")
	}
	if len(r.Messages) < MinMessages {
		return fmt.Errorf("at least %d message is required", MinMessages)
	}
	if len(r.Messages) > MaxMessages {
		return fmt.Errorf("at most %d messages are allowed", MaxMessages)
	}
	if first := r.Messages[0].Role; first != RoleUser && first != RoleSystem {
		return fmt.Errorf("first message role must be %q or %q, got %q", RoleUser, RoleSystem, first)
	}
	for i := range r.Messages {
		if err := r.Messages[i].Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	if len(r.Tools) > MaxTools {
		return fmt.Errorf("at most %d tools are allowed", MaxTools)
	}
	seen := make(map[string]struct{}, len(r.Tools))
	for i := range r.Tools {
		if err := r.Tools[i].Validate(); err != nil {
			return fmt.Errorf("tool %d: %w", i, err)
		}
		name := r.Tools[i].Function.Name
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate tool name: %q", name)
		}
		seen[name] = struct{}{}
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0.0 and 2.0")
	}
	if r.TopP != nil && (*r.TopP < 0 || *r.TopP > 1) {
		return fmt.Errorf("top_p must be between 0.0 and 1.0")
	}
	if r.MaxTokens != nil && *r.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be at least 1")
	}
	return nil
}
