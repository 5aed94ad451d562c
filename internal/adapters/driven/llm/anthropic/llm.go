// Package anthropic provides an answer provider backed by the Anthropic API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/spaces/internal/adapters/driven/llm"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// Ensure AnswerProvider implements the interface.
var _ driven.AnswerProvider = (*AnswerProvider)(nil)

// Default configuration values.
const (
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Anthropic answer provider.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL overrides the API base URL.
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the per-request timeout (default: 120s).
	Timeout time.Duration

	// MaxTokens caps the answer length (default: llm.DefaultMaxTokens).
	MaxTokens int

	// Prompts supplies the system prompt. Optional.
	Prompts driven.PromptStore
}

// AnswerProvider answers questions through the Messages API.
type AnswerProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	prompts   driven.PromptStore
}

// NewAnswerProvider creates a new Anthropic answer provider.
// The SDK's own retries are disabled; retries belong to the caller's CallPolicy.
func NewAnswerProvider(cfg Config) (*AnswerProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
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

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnswerProvider{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		prompts:   cfg.Prompts,
	}, nil
}

// Answer asks the model to answer from the passages.
func (p *AnswerProvider) Answer(ctx context.Context, question string, passages []domain.ScoredRecord) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: llm.SystemPrompt(p.prompts, driven.PromptAnswer)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(llm.Envelope(question, passages))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	answer := strings.TrimSpace(b.String())
	if answer == "" {
		return "", errors.New("anthropic: no response content returned")
	}
	return answer, nil
}

// ModelName returns the name of the model being used.
func (p *AnswerProvider) ModelName() string {
	return p.model
}

// Ping lists models, which validates the API key without running inference.
func (p *AnswerProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (p *AnswerProvider) Close() error {
	return nil
}
