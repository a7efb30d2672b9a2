package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/upb/provider-gateway/metrics"
	"github.com/upb/provider-gateway/models"
	"github.com/upb/provider-gateway/services"
	"github.com/upb/provider-gateway/services/providers"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"

	// defaultRetryAfter applies when a 429 response carries no hint
	defaultRetryAfter = 60 * time.Second
)

// Adapter implements the Provider contract for OpenAI-compatible backends
type Adapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	retry      providers.RetryPolicy
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewAdapter creates a new OpenAI adapter. A nil metrics value disables
// retry accounting.
func NewAdapter(config providers.ProviderConfig, m *metrics.Metrics, logger *zap.Logger) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = providers.DefaultTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = providers.DefaultMaxRetries
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = providers.DefaultMaxTokens
	}

	a := &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retry:   providers.NewRetryPolicy(config.MaxRetries, config.BaseDelay),
		metrics: m,
		logger:  logger,
	}
	if m != nil {
		a.retry.OnRetry = func(int, time.Duration) {
			m.RecordUpstreamRetry(a.Name())
		}
	}
	return a
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return "openai"
}

// Capabilities returns the capability tags for this provider
func (a *Adapter) Capabilities() []providers.Capability {
	return []providers.Capability{
		providers.CapabilityChat,
		providers.CapabilityTools,
		providers.CapabilityStreaming,
	}
}

// MaxTokens returns the largest completion this backend accepts
func (a *Adapter) MaxTokens() int {
	return a.config.MaxTokens
}

// ValidateRequest checks whether this provider can serve the request
func (a *Adapter) ValidateRequest(req *models.ChatCompletionRequest) error {
	if err := req.Validate(); err != nil {
		return services.NewValidationError("invalid chat completion request", err)
	}
	if req.MaxTokens != nil && *req.MaxTokens > a.config.MaxTokens {
		return services.NewValidationError(
			fmt.Sprintf("max_tokens %d exceeds provider limit %d", *req.MaxTokens, a.config.MaxTokens), nil)
	}
	return nil
}

// Generate performs a chat completion request with bounded retry and
// returns the normalized response
func (a *Adapter) Generate(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	if err := a.ValidateRequest(req); err != nil {
		return nil, err
	}

	body, err := json.Marshal(a.buildWireRequest(req))
	if err != nil {
		return nil, services.WrapInternal("failed to marshal upstream request", err)
	}

	var response *models.ChatCompletionResponse

	err = a.retry.Execute(ctx, func(ctx context.Context, attempt int) providers.AttemptOutcome {
		resp, outcome := a.doAttempt(ctx, attempt, body)
		if outcome.Kind == providers.OutcomeSuccess {
			response = a.normalizeResponse(req.Model, resp)
		}
		return outcome
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// doAttempt executes one HTTP round trip and classifies the result
func (a *Adapter) doAttempt(ctx context.Context, attempt int, body []byte) ([]byte, providers.AttemptOutcome) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, providers.Fatal(services.WrapInternal("failed to create upstream request", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			a.logger.Warn("upstream request timed out",
				zap.Int("attempt", attempt),
				zap.Error(err))
			return nil, providers.Retryable(services.NewTimeoutError("upstream request timed out", err))
		}
		a.logger.Warn("upstream request failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		return nil, providers.Retryable(services.NewNetworkError("upstream request failed", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.Retryable(services.NewNetworkError("failed to read upstream response", err))
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(httpResp.Header.Get("Retry-After"))
		a.logger.Warn("upstream rate limited",
			zap.Int("attempt", attempt),
			zap.Duration("retry_after", retryAfter))
		return nil, providers.RetryableAfter(
			services.NewRateLimitError("upstream rate limit exceeded", retryAfter), retryAfter)
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		// Client/payload errors do not self-heal: fail immediately.
		msg := parseErrorMessage(respBody)
		return nil, providers.Fatal(
			services.NewUpstreamError(msg, nil).WithDetail("status_code", httpResp.StatusCode))
	}

	return respBody, providers.Success()
}

// wire request/response types

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type wireTool struct {
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

type wireToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type wireResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   wireUsage    `json:"usage"`
}

type wireChoice struct {
	Index        int         `json:"index"`
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type wireErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// buildWireRequest converts the canonical request to the provider format.
// Absent options are stripped via nil pointers before sending.
func (a *Adapter) buildWireRequest(req *models.ChatCompletionRequest) *wireRequest {
	out := &wireRequest{
		Model:       req.Model,
		Messages:    make([]wireMessage, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
	}

	for i, msg := range req.Messages {
		out.Messages[i] = wireMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
			Name:    msg.Name,
		}
	}

	if len(req.Tools) > 0 {
		out.Tools = make([]wireTool, len(req.Tools))
		for i, tool := range req.Tools {
			toolType := tool.Type
			if toolType == "" {
				toolType = "function"
			}
			out.Tools[i] = wireTool{
				Type: toolType,
				Function: wireToolFunction{
					Name:        tool.Function.Name,
					Description: tool.Function.Description,
					Parameters:  tool.Function.Parameters,
				},
			}
		}
		out.ToolChoice = "auto"
	}

	return out
}

// normalizeResponse converts the raw upstream body to the canonical
// response. It never fails: a body without a choices list (a minimal or
// non-standard provider reply) yields one synthesized assistant choice
// carrying the stringified body, and missing usage accounting defaults
// to zero.
func (a *Adapter) normalizeResponse(model string, body []byte) *models.ChatCompletionResponse {
	var raw wireResponse
	parseErr := json.Unmarshal(body, &raw)

	resp := &models.ChatCompletionResponse{
		ID:      raw.ID,
		Object:  "chat.completion",
		Created: raw.Created,
		Model:   raw.Model,
		Usage: models.Usage{
			PromptTokens:     raw.Usage.PromptTokens,
			CompletionTokens: raw.Usage.CompletionTokens,
			TotalTokens:      raw.Usage.TotalTokens,
		},
	}

	if parseErr == nil && len(raw.Choices) > 0 {
		resp.Choices = make([]models.Choice, len(raw.Choices))
		for i, choice := range raw.Choices {
			resp.Choices[i] = models.Choice{
				Index: choice.Index,
				Message: models.ChatMessage{
					Role:    models.MessageRole(choice.Message.Role),
					Content: choice.Message.Content,
					Name:    choice.Message.Name,
				},
				FinishReason: choice.FinishReason,
			}
		}
	} else {
		resp.Choices = []models.Choice{{
			Index: 0,
			Message: models.ChatMessage{
				Role:    models.RoleAssistant,
				Content: string(body),
			},
			FinishReason: models.FinishReasonStop,
		}}
	}

	if resp.ID == "" {
		// Correlation hint only; uniqueness beyond that is not promised.
		resp.ID = "chatcmpl-" + uuid.NewString()
	}
	if resp.Created == 0 {
		resp.Created = time.Now().Unix()
	}
	if resp.Model == "" {
		resp.Model = model
	}

	return resp
}

// parseErrorMessage extracts the upstream error message when the body
// carries one, falling back to the raw body
func parseErrorMessage(body []byte) string {
	var errResp wireErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	if len(body) > 0 {
		return string(body)
	}
	return "upstream provider returned an error"
}

// parseRetryAfter reads a Retry-After header in seconds, defaulting to
// 60s when absent or unparseable
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// isTimeout reports whether a transport error is a timeout rather than a
// generic network fault
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
