package providers

import (
	"context"
	"time"

	"github.com/upb/provider-gateway/models"
)

// Capability is a tag describing a feature a provider supports
type Capability string

const (
	CapabilityChat      Capability = "chat"
	CapabilityTools     Capability = "tools"
	CapabilityStreaming Capability = "streaming"
	CapabilityWebSearch Capability = "web_search"
)

// Provider is the capability contract every model adapter implements.
// Callers select an adapter by model id through the Registry and never
// branch on provider-specific behavior.
type Provider interface {
	// Name returns the provider name (e.g., "openai")
	Name() string

	// Generate performs a chat completion request against the backend,
	// retrying transient failures, and returns the normalized response
	Generate(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error)

	// ValidateRequest checks whether this provider can serve the request
	ValidateRequest(req *models.ChatCompletionRequest) error

	// Capabilities returns the set of capability tags for this provider
	Capabilities() []Capability

	// MaxTokens returns the largest completion this provider accepts
	MaxTokens() int
}

// Default execution policy values. The request timeout is deliberately
// long to accommodate slow reasoning-style backends.
const (
	DefaultTimeout    = 10 * time.Minute
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	DefaultMaxTokens  = 128000
)

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication against the upstream service
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Models served by this provider, used for registry routing
	Models []string

	// Timeout for a single upstream request
	Timeout time.Duration

	// MaxRetries for transient failures; total attempts = MaxRetries + 1.
	// Zero selects the default; a negative value disables retries.
	MaxRetries int

	// BaseDelay is the first backoff delay, doubling per attempt
	BaseDelay time.Duration

	// MaxTokens is the largest completion the backend accepts
	MaxTokens int

	// Additional headers sent with every request
	Headers map[string]string
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxTokens:  DefaultMaxTokens,
		Headers:    make(map[string]string),
	}
}
