// Package openai provides an LLM service adapter using the OpenAI
// chat completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/meridian-labs/briefing/internal/core/domain"
	"github.com/meridian-labs/briefing/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.3
)

// Config holds configuration for the OpenAI LLM service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL. Useful for Azure OpenAI or
	// compatible APIs.
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// MaxTokens caps the completion length (default: 1024).
	MaxTokens int

	// Temperature controls sampling (default: 0.3).
	Temperature float32
}

// LLMService generates chat completions using the OpenAI API.
// Sampling parameters are fixed at construction; per-call variation is
// not part of the port.
type LLMService struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &LLMService{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Generate produces the assistant's reply for one turn.
func (s *LLMService) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %v: %w", err, domain.ErrGenerationFailed)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned: %w", domain.ErrGenerationFailed)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ModelName returns the name of the chat model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
