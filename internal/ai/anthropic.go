package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/radio-t/webradio/internal/content"
	"github.com/radio-t/webradio/podcast"
)

// DefaultAnthropicModel is used when no script model is configured
const DefaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicParams contains Anthropic client settings
type AnthropicParams struct {
	APIKey     string
	BaseURL    string // optional, for tests
	Model      string
	MaxRetries int
	HTTPClient *http.Client
}

// AnthropicScriptWriter writes scripts with the Anthropic messages API
type AnthropicScriptWriter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicScriptWriter creates a new Anthropic script writer
func NewAnthropicScriptWriter(params AnthropicParams) *AnthropicScriptWriter {
	opts := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
		option.WithMaxRetries(params.MaxRetries),
	}
	if params.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(params.BaseURL))
	}
	if params.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(params.HTTPClient))
	} else {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: content.OpenAIHTTPTimeout}))
	}

	model := params.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicScriptWriter{client: anthropic.NewClient(opts...), model: model}
}

// GenerateScript asks the model for a dialogue script
func (w *AnthropicScriptWriter) GenerateScript(ctx context.Context, params podcast.GenerateScriptParams) (string, error) {
	resp, err := w.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(w.model),
		MaxTokens: int64(content.OpenAIMaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: createScriptPrompt(params.Style, params.Language)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(createSourceMessage(params))),
		},
		Temperature: anthropic.Float(content.OpenAITemperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate script: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	script := cleanScript(sb.String())
	if script == "" {
		return "", errors.New("empty script in API response")
	}
	return script, nil
}

// NewScriptWriter picks the script writer for the provider name, openai is the default
func NewScriptWriter(provider string, openAI *OpenAIService, anthropicParams AnthropicParams) (ScriptWriter, error) {
	switch strings.ToLower(provider) {
	case "", "openai":
		if openAI == nil {
			return nil, errors.New("openai service is not configured")
		}
		return openAI, nil
	case "anthropic":
		if anthropicParams.APIKey == "" {
			return nil, errors.New("anthropic api key is required")
		}
		return NewAnthropicScriptWriter(anthropicParams), nil
	default:
		return nil, fmt.Errorf("unknown script provider %q", provider)
	}
}
