// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	googleembed "github.com/custodia-labs/spaces/internal/adapters/driven/embedding/google"
	ollamaembed "github.com/custodia-labs/spaces/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/spaces/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/spaces/internal/adapters/driven/llm/anthropic"
	googlellm "github.com/custodia-labs/spaces/internal/adapters/driven/llm/google"
	ollamallm "github.com/custodia-labs/spaces/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/spaces/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint is appended to initialisation errors.
const fixHint = "check ~/.spaces/config.toml or the SPACES_* environment"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	AnswerProvider   driven.AnswerProvider
	Warnings         []string // Non-fatal issues, e.g. no answer provider.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.AnswerProvider != nil {
		r.AnswerProvider.Close()
	}
}

// Initialise creates and validates both services. An embedding failure is
// fatal because nothing can be indexed or searched without it; an answer
// provider failure only disables chat and is reported as a warning.
func Initialise(
	ctx context.Context,
	embedding *domain.EmbeddingSettings,
	llm *domain.LLMSettings,
	prompts driven.PromptStore,
) (*InitResult, error) {
	embedSvc, err := CreateAndValidateEmbeddingService(ctx, embedding)
	if err != nil {
		return nil, err
	}
	if embedSvc == nil {
		return nil, fmt.Errorf("%w: embedding provider is not configured, %s",
			domain.ErrEmbeddingUnavailable, fixHint)
	}

	result := &InitResult{EmbeddingService: embedSvc}

	answers, err := CreateAndValidateAnswerProvider(ctx, llm, prompts)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
	case answers == nil:
		result.Warnings = append(result.Warnings, "no answer provider configured; ask is disabled")
	default:
		result.AnswerProvider = answers
	}

	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil without error if the provider is not configured.
func CreateAndValidateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w, %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(ctx, svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w), %s",
			domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	return svc, nil
}

// CreateAndValidateAnswerProvider creates an answer provider and validates connectivity.
// Returns nil without error if the provider is not configured.
func CreateAndValidateAnswerProvider(
	ctx context.Context, settings *domain.LLMSettings, prompts driven.PromptStore,
) (driven.AnswerProvider, error) {
	svc, err := CreateAnswerProvider(ctx, settings, prompts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w, %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(ctx, svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w), %s",
			domain.ErrLLMUnavailable, err, fixHint)
	}
	return svc, nil
}

// ValidateLLMConfig validates an answer provider configuration by creating a
// service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	ctx := context.Background()
	svc, err := CreateAnswerProvider(ctx, settings, nil)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, svc.Ping)
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// CreateEmbeddingService creates the embedding service selected by settings,
// throttled when RatePerSecond is set. Returns nil if the provider is not configured.
func CreateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc, err = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.DimensionsFor(),
		})

	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderGoogle:
		svc, err = googleembed.NewEmbeddingService(ctx, googleembed.Config{
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			Dimensions: settings.DimensionsFor(),
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewRateLimitedEmbedding(svc, settings.RatePerSecond), nil
}

// CreateAnswerProvider creates the answer provider selected by settings.
// Returns nil if the provider is not configured.
func CreateAnswerProvider(
	ctx context.Context, settings *domain.LLMSettings, prompts driven.PromptStore,
) (driven.AnswerProvider, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.AnswerProvider
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc, err = ollamallm.NewAnswerProvider(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Prompts: prompts,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewAnswerProvider(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Prompts: prompts,
		})

	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewAnswerProvider(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Prompts: prompts,
		})

	case domain.AIProviderGoogle:
		svc, err = googlellm.NewAnswerProvider(ctx, googlellm.Config{
			APIKey:  settings.APIKey,
			Model:   settings.Model,
			Prompts: prompts,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}
