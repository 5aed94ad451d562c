// Package google provides an answer provider backed by Google Gemini.
// Gemini is asked to cite pages inline as [file p.N].
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/custodia-labs/spaces/internal/adapters/driven/llm"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// Ensure AnswerProvider implements the interface.
var _ driven.AnswerProvider = (*AnswerProvider)(nil)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// Config holds configuration for the Gemini answer provider.
type Config struct {
	// APIKey is the Google AI API key (required).
	APIKey string

	// Model is the Gemini model to use (default: gemini-1.5-flash).
	Model string

	// MaxTokens caps the answer length (default: llm.DefaultMaxTokens).
	MaxTokens int

	// Prompts supplies the system prompt. Optional.
	Prompts driven.PromptStore

	// ClientOptions are appended after the API key, e.g. an endpoint override.
	ClientOptions []option.ClientOption
}

// AnswerProvider answers questions with a Gemini generative model.
type AnswerProvider struct {
	client    *genai.Client
	model     string
	maxTokens int32
	prompts   driven.PromptStore
}

// NewAnswerProvider creates a new Gemini answer provider.
func NewAnswerProvider(ctx context.Context, cfg Config) (*AnswerProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("google: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = llm.DefaultMaxTokens
	}

	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.ClientOptions...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: create client: %w", err)
	}

	return &AnswerProvider{
		client:    client,
		model:     cfg.Model,
		maxTokens: int32(cfg.MaxTokens),
		prompts:   cfg.Prompts,
	}, nil
}

// Answer asks Gemini to answer from the passages, citing pages inline.
func (p *AnswerProvider) Answer(ctx context.Context, question string, passages []domain.ScoredRecord) (string, error) {
	model := p.client.GenerativeModel(p.model)
	model.SetMaxOutputTokens(p.maxTokens)
	model.SystemInstruction = genai.NewUserContent(genai.Text(llm.SystemPrompt(p.prompts, driven.PromptAnswerCited)))

	resp, err := model.GenerateContent(ctx, genai.Text(llm.Envelope(question, passages)))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	answer := responseText(resp)
	if answer == "" {
		return "", errors.New("google: no response content returned")
	}
	return answer, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}

// ModelName returns the name of the model being used.
func (p *AnswerProvider) ModelName() string {
	return p.model
}

// Ping fetches the first page of the model listing.
func (p *AnswerProvider) Ping(ctx context.Context) error {
	return ping(ctx, p.client)
}

// Close releases the underlying client.
func (p *AnswerProvider) Close() error {
	return p.client.Close()
}

func ping(ctx context.Context, client *genai.Client) error {
	it := client.ListModels(ctx)
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("google: ping failed: %w", err)
	}
	return nil
}
