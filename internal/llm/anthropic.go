package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "claude-3-5-haiku-20241022"
	// DefaultMaxTokens bounds the completion length when no limit is configured.
	DefaultMaxTokens = 4000

	contentTypeText = "text"
)

// AnthropicConfig configures an AnthropicGenerator.
type AnthropicConfig struct {
	APIKey     string
	Model      string
	MaxTokens  int64
	BaseURL    string
	HTTPClient *http.Client
}

// AnthropicGenerator requests completions from the Anthropic Messages API. Requests are not retried.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicGenerator validates the configuration and builds a generator.
func NewAnthropicGenerator(config AnthropicConfig) (*AnthropicGenerator, error) {
	apiKey := strings.TrimSpace(config.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	requestOptions := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(config.BaseURL); baseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(baseURL))
	}
	if config.HTTPClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(config.HTTPClient))
	}
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = DefaultModel
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &AnthropicGenerator{
		client:    anthropic.NewClient(requestOptions...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Model reports the configured model name.
func (generator *AnthropicGenerator) Model() string {
	return generator.model
}

// Generate sends one user message and joins the text blocks of the reply.
func (generator *AnthropicGenerator) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	parameters := anthropic.MessageNewParams{
		Model:     anthropic.Model(generator.model),
		MaxTokens: generator.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		parameters.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	message, requestErr := generator.client.Messages.New(ctx, parameters)
	if requestErr != nil {
		var apiError *anthropic.Error
		if errors.As(requestErr, &apiError) {
			return "", fmt.Errorf("anthropic messages request failed with status %d: %w", apiError.StatusCode, requestErr)
		}
		return "", fmt.Errorf("anthropic messages request: %w", requestErr)
	}
	var builder strings.Builder
	for _, block := range message.Content {
		if block.Type == contentTypeText {
			builder.WriteString(block.Text)
		}
	}
	if builder.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	return builder.String(), nil
}
