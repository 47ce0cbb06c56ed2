// Package openai performs chat completion calls for alias generation.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/cloo-solutions/aliasgen/internal/prompt"
	"github.com/cloo-solutions/aliasgen/internal/telemetry"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the model used when none is configured
	DefaultChatModel = openai.GPT4oMini
	// DefaultMaxTokens bounds the reply length; a list of aliases is short
	DefaultMaxTokens = 200
	// DefaultTimeout applies to the whole HTTP exchange
	DefaultTimeout = 60 * time.Second
)

// ChatAPI defines the interface for chat completion
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// APIFactory creates a ChatAPI bound to a credential and endpoint. An empty
// baseURL selects the default endpoint.
type APIFactory func(apiKey, baseURL string) ChatAPI

// Config holds the completion client settings.
type Config struct {
	BaseURL    string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
}

// CompletionOptions are the per-call settings. Zero Model and MaxTokens
// fall back to the client defaults.
type CompletionOptions struct {
	APIKey      string
	Temperature float32
	Model       string
	MaxTokens   int
	// BaseURL overrides the endpoint configured on the client.
	BaseURL string
}

// Client sends prompts to a chat completion endpoint.
type Client struct {
	newAPI    APIFactory
	model     string
	maxTokens int
}

// NewClient creates a Client talking to the OpenAI compatible endpoint in cfg.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	defaultBaseURL := cfg.BaseURL

	factory := func(apiKey, baseURL string) ChatAPI {
		clientCfg := openai.DefaultConfig(apiKey)
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		if baseURL != "" {
			clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
		}
		clientCfg.HTTPClient = httpClient
		return openai.NewClientWithConfig(clientCfg)
	}

	return NewClientWithAPI(factory, cfg.Model, cfg.MaxTokens)
}

// NewClientWithAPI creates a Client using a custom ChatAPI factory.
func NewClientWithAPI(factory APIFactory, model string, maxTokens int) *Client {
	if model == "" {
		model = DefaultChatModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Client{
		newAPI:    factory,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string {
	return c.model
}

// Complete sends p as a system and a user message and returns the trimmed
// text of the first choice. A single attempt is made.
func (c *Client) Complete(ctx context.Context, p prompt.Prompt, opts CompletionOptions) (string, error) {
	if opts.APIKey == "" {
		return "", domain.ErrMissingAPIKey
	}

	model := c.model
	if opts.Model != "" {
		model = opts.Model
	}
	maxTokens := c.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	ctx, span := telemetry.StartSpan(ctx, "openai.Complete", telemetry.SpanAttributes{
		Mode:      string(p.Mode),
		Model:     model,
		Operation: "chat.completion",
	})
	defer span.End()

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		MaxTokens:   maxTokens,
		Temperature: wireTemperature(opts.Temperature),
	}

	resp, err := c.newAPI(opts.APIKey, opts.BaseURL).CreateChatCompletion(ctx, req)
	if err != nil {
		classified := classifyError(err)
		span.SetError(classified)
		return "", classified
	}

	if len(resp.Choices) == 0 {
		span.SetError(domain.ErrMalformedResponse)
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeMalformedResponse,
			domain.ErrMalformedResponse.Message, errors.New("no choices in completion response"))
	}

	span.SetData("completion_tokens", resp.Usage.CompletionTokens)
	log.Printf("openai: completion model=%s prompt_tokens=%d completion_tokens=%d",
		model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// wireTemperature maps 0 to the smallest positive float32: go-openai drops a
// zero temperature from the request body and the server would apply its
// default instead.
func wireTemperature(t float32) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewAPIRejectedError(apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return domain.NewAPIRejectedError(fmt.Sprintf("HTTP %d", reqErr.HTTPStatusCode), err)
	}

	if errors.Is(err, openai.ErrChatCompletionInvalidModel) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "model is not supported for chat completions", err)
	}

	if isTransportError(err) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeNetwork, domain.ErrNetwork.Message, err)
	}

	return domain.NewDomainErrorWithCause(domain.ErrCodeMalformedResponse, domain.ErrMalformedResponse.Message, err)
}

func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
