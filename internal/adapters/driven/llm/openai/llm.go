// Package openai provides an answer provider backed by the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/spaces/internal/adapters/driven/llm"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// Ensure AnswerProvider implements the interface.
var _ driven.AnswerProvider = (*AnswerProvider)(nil)

// Default configuration values.
const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI answer provider.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL, e.g. for a compatible proxy.
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the HTTP client timeout (default: 120s).
	Timeout time.Duration

	// MaxTokens caps the answer length (default: llm.DefaultMaxTokens).
	MaxTokens int

	// Prompts supplies the system prompt. Optional.
	Prompts driven.PromptStore
}

// AnswerProvider answers questions through chat completions.
type AnswerProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
	prompts   driven.PromptStore
}

// NewAnswerProvider creates a new OpenAI answer provider.
func NewAnswerProvider(cfg Config) (*AnswerProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = llm.DefaultMaxTokens
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &AnswerProvider{
		client:    openai.NewClientWithConfig(config),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		prompts:   cfg.Prompts,
	}, nil
}

// Answer asks the chat model to answer from the passages.
func (p *AnswerProvider) Answer(ctx context.Context, question string, passages []domain.ScoredRecord) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llm.SystemPrompt(p.prompts, driven.PromptAnswer)},
			{Role: openai.ChatMessageRoleUser, Content: llm.Envelope(question, passages)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", errors.New("openai: empty response")
	}
	return answer, nil
}

// ModelName returns the name of the chat model being used.
func (p *AnswerProvider) ModelName() string {
	return p.model
}

// Ping lists models, which validates the API key without running inference.
func (p *AnswerProvider) Ping(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (p *AnswerProvider) Close() error {
	return nil
}
