package providers

import (
	"context"
	"testing"

	"github.com/upb/provider-gateway/models"
)

// stubProvider is a minimal Provider for registry tests
type stubProvider struct {
	name string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Generate(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	return &models.ChatCompletionResponse{}, nil
}

func (p *stubProvider) ValidateRequest(req *models.ChatCompletionRequest) error { return nil }

func (p *stubProvider) Capabilities() []Capability { return []Capability{CapabilityChat} }

func (p *stubProvider) MaxTokens() int { return 4096 }

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(&stubProvider{name: "openai"}, "gpt-4o", "gpt-4o-mini"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := registry.Register(&stubProvider{name: "openai"}); err != ErrProviderAlreadyRegistered {
		t.Errorf("duplicate Register() error = %v, want ErrProviderAlreadyRegistered", err)
	}

	if err := registry.Register(nil); err == nil {
		t.Error("Register(nil) expected error")
	}

	if err := registry.Register(&stubProvider{name: ""}); err == nil {
		t.Error("Register() with empty name expected error")
	}
}

func TestRegistry_GetProviderForModel(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&stubProvider{name: "openai"}, "gpt-4o"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := registry.RegisterModelPrefix("gpt-", "openai"); err != nil {
		t.Fatalf("RegisterModelPrefix() error = %v", err)
	}

	tests := []struct {
		name      string
		model     string
		wantName  string
		expectErr error
	}{
		{
			name:     "direct mapping",
			model:    "gpt-4o",
			wantName: "openai",
		},
		{
			name:     "prefix mapping",
			model:    "gpt-4.1-nano",
			wantName: "openai",
		},
		{
			name:      "unknown model",
			model:     "claude-3-opus",
			expectErr: ErrModelNotSupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := registry.GetProviderForModel(tt.model)

			if tt.expectErr != nil {
				if err != tt.expectErr {
					t.Errorf("error = %v, want %v", err, tt.expectErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("GetProviderForModel() error = %v", err)
			}
			if provider.Name() != tt.wantName {
				t.Errorf("provider = %s, want %s", provider.Name(), tt.wantName)
			}
		})
	}
}

func TestRegistry_GetProvider(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&stubProvider{name: "openai"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := registry.GetProvider("openai"); err != nil {
		t.Errorf("GetProvider() error = %v", err)
	}

	if _, err := registry.GetProvider("anthropic"); err != ErrProviderNotFound {
		t.Errorf("GetProvider() error = %v, want ErrProviderNotFound", err)
	}
}

func TestRegistry_RegisterModelPrefix_UnknownProvider(t *testing.T) {
	registry := NewRegistry()

	if err := registry.RegisterModelPrefix("gpt-", "openai"); err != ErrProviderNotFound {
		t.Errorf("RegisterModelPrefix() error = %v, want ErrProviderNotFound", err)
	}
}

func TestRegistry_Listings(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&stubProvider{name: "openai"}, "gpt-4o", "gpt-4o-mini"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if got := registry.ListProviders(); len(got) != 1 || got[0] != "openai" {
		t.Errorf("ListProviders() = %v, want [openai]", got)
	}

	if got := registry.ListModels(); len(got) != 2 {
		t.Errorf("ListModels() = %v, want 2 models", got)
	}
}
