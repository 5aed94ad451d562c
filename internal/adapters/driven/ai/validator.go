package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// sampleText is embedded once to learn the vector length a model returns.
const sampleText = "spaces dimension check"

// ConfigValidator checks the providers a space index depends on before
// settings are saved. An unconfigured provider passes.
type ConfigValidator struct{}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding pings the embedding provider. When the model has a known
// dimension it also embeds a sample, since records of the wrong length are
// skipped at search time.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	ctx := context.Background()
	svc, err := CreateEmbeddingService(ctx, config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	if err := ping(ctx, svc.Ping); err != nil {
		return err
	}
	want := svc.Dimensions()
	if want == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	vec, err := svc.Embed(ctx, sampleText)
	if err != nil {
		return fmt.Errorf("embed sample: %w", err)
	}
	if len(vec) != want {
		return fmt.Errorf("model %s: %w", svc.ModelName(), &domain.DimensionMismatchError{Want: want, Got: len(vec)})
	}
	return nil
}

// ValidateLLM pings the answer provider.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	return ValidateLLMConfig(config)
}
