package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/radio-t/webradio/internal/content"
	"github.com/radio-t/webradio/podcast"
)

// default OpenAI models
const (
	DefaultChatModel   = "gpt-4o"
	DefaultSpeechModel = "tts-1"
)

// OpenAIParams contains OpenAI client settings
type OpenAIParams struct {
	APIKey      string
	BaseURL     string // optional, for compatible endpoints and tests
	ChatModel   string
	SpeechModel string
	HTTPClient  *http.Client
}

// OpenAIService implements script writing and speech synthesis with OpenAI
type OpenAIService struct {
	client      *openai.Client
	chatModel   string
	speechModel string
}

// NewOpenAIService creates a new OpenAI service
func NewOpenAIService(params OpenAIParams) *OpenAIService {
	cfg := openai.DefaultConfig(params.APIKey)
	if params.BaseURL != "" {
		cfg.BaseURL = params.BaseURL
	}
	if params.HTTPClient != nil {
		cfg.HTTPClient = params.HTTPClient
	} else {
		cfg.HTTPClient = &http.Client{Timeout: content.OpenAIHTTPTimeout}
	}

	svc := &OpenAIService{
		client:      openai.NewClientWithConfig(cfg),
		chatModel:   params.ChatModel,
		speechModel: params.SpeechModel,
	}
	if svc.chatModel == "" {
		svc.chatModel = DefaultChatModel
	}
	if svc.speechModel == "" {
		svc.speechModel = DefaultSpeechModel
	}
	return svc
}

// GenerateScript asks the chat model for a dialogue script
func (s *OpenAIService) GenerateScript(ctx context.Context, params podcast.GenerateScriptParams) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: createScriptPrompt(params.Style, params.Language)},
			{Role: openai.ChatMessageRoleUser, Content: createSourceMessage(params)},
		},
		Temperature: content.OpenAITemperature,
		MaxTokens:   content.OpenAIMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate script: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from API")
	}

	script := cleanScript(resp.Choices[0].Message.Content)
	if script == "" {
		return "", errors.New("empty script in API response")
	}
	return script, nil
}

// Synthesize generates mp3 speech for one line of text
func (s *OpenAIService) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty text")
	}

	ctx, cancel := context.WithTimeout(ctx, content.SpeechGenerationTimeout)
	defer cancel()

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.speechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          speed,
	})
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty speech response")
	}
	return data, nil
}
