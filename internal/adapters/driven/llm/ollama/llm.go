// Package ollama provides an answer provider backed by a local Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/spaces/internal/adapters/driven/llm"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// Ensure AnswerProvider implements the interface.
var _ driven.AnswerProvider = (*AnswerProvider)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama answer provider.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the chat model to use (default: llama3.2).
	Model string

	// Timeout is the HTTP client timeout (default: 120s).
	Timeout time.Duration

	// Prompts supplies the system prompt. Optional.
	Prompts driven.PromptStore
}

// AnswerProvider answers questions through the Ollama chat endpoint.
type AnswerProvider struct {
	client  *api.Client
	model   string
	prompts driven.PromptStore
}

// NewAnswerProvider creates a new Ollama answer provider.
func NewAnswerProvider(cfg Config) (*AnswerProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid base URL: %w", err)
	}

	return &AnswerProvider{
		client:  api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:   cfg.Model,
		prompts: cfg.Prompts,
	}, nil
}

// Answer sends the passages and question as a single non-streamed chat turn.
func (p *AnswerProvider) Answer(ctx context.Context, question string, passages []domain.ScoredRecord) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: p.model,
		Messages: []api.Message{
			{Role: "system", Content: llm.SystemPrompt(p.prompts, driven.PromptAnswer)},
			{Role: "user", Content: llm.Envelope(question, passages)},
		},
		Stream: &stream,
	}

	var b strings.Builder
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	answer := strings.TrimSpace(b.String())
	if answer == "" {
		return "", errors.New("ollama: empty response")
	}
	return answer, nil
}

// ModelName returns the name of the chat model being used.
func (p *AnswerProvider) ModelName() string {
	return p.model
}

// Ping checks the server responds to a heartbeat.
func (p *AnswerProvider) Ping(ctx context.Context) error {
	if err := p.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (p *AnswerProvider) Close() error {
	return nil
}
