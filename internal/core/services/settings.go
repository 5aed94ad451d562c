package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
	"github.com/custodia-labs/spaces/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySpacesRoot      = "spaces.root"
	keyStoreDriver     = "store.driver"
	keyStoreDSN        = "store.dsn"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedRate       = "embedding.rate_per_second"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyOCRProvider     = "ocr.provider"
	keyOCRModel        = "ocr.model"
	keyOCRBaseURL      = "ocr.base_url"
	keyOCRLanguage     = "ocr.language"
	keyAssetsProvider  = "assets.provider"
	keyAssetsEndpoint  = "assets.endpoint"
	keyAssetsBucket    = "assets.bucket"
	keyAssetsAccessKey = "assets.access_key"
	keyAssetsSecretKey = "assets.secret_key"
	keyAssetsSecure    = "assets.secure"
	keyScoringWeight   = "scoring.token_weight"
	keyScoringCost     = "scoring.cost_per_word"
	keyCallsTimeout    = "calls.timeout_seconds"
	keyCallsAttempts   = "calls.max_attempts"
	keyCallsBackoff    = "calls.backoff_ms"
	keyCallsMaxBackoff = "calls.max_backoff_ms"
	defaultOllamaURL   = "http://localhost:11434"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings, filling gaps with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		SpacesRoot: s.getString(keySpacesRoot, d.SpacesRoot),
		Store: domain.StoreSettings{
			Driver: s.getStoreDriver(d.Store.Driver),
			DSN:    s.configStore.GetString(keyStoreDSN),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:      s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:         s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:       s.configStore.GetString(keyEmbedBaseURL),
			APIKey:        s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:    s.configStore.GetInt(keyEmbedDims),
			RatePerSecond: s.configStore.GetFloat(keyEmbedRate),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		OCR: domain.OCRSettings{
			Provider: s.getOCRProvider(d.OCR.Provider),
			Model:    s.configStore.GetString(keyOCRModel),
			BaseURL:  s.configStore.GetString(keyOCRBaseURL),
			Language: s.getString(keyOCRLanguage, d.OCR.Language),
		},
		Assets: domain.AssetSettings{
			Provider:  s.getAssetProvider(d.Assets.Provider),
			Endpoint:  s.configStore.GetString(keyAssetsEndpoint),
			Bucket:    s.configStore.GetString(keyAssetsBucket),
			AccessKey: s.configStore.GetString(keyAssetsAccessKey),
			SecretKey: s.configStore.GetString(keyAssetsSecretKey),
			Secure:    s.getBool(keyAssetsSecure, d.Assets.Secure),
		},
		Scoring: domain.ScoringSettings{
			TokenWeight: s.getFloat(keyScoringWeight, d.Scoring.TokenWeight),
			CostPerWord: s.getFloat(keyScoringCost, d.Scoring.CostPerWord),
		},
		Calls: domain.CallPolicy{
			Timeout:        s.getDuration(keyCallsTimeout, time.Second, d.Calls.Timeout),
			MaxAttempts:    s.getInt(keyCallsAttempts, d.Calls.MaxAttempts),
			InitialBackoff: s.getDuration(keyCallsBackoff, time.Millisecond, d.Calls.InitialBackoff),
			MaxBackoff:     s.getDuration(keyCallsMaxBackoff, time.Millisecond, d.Calls.MaxBackoff),
			Multiplier:     d.Calls.Multiplier,
		},
	}

	if settings.Embedding.Provider.IsLocal() && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = defaultOllamaURL
	}
	if settings.LLM.Provider.IsLocal() && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = defaultOllamaURL
	}
	if settings.OCR.Provider == domain.OCRProviderOllama && settings.OCR.BaseURL == "" {
		settings.OCR.BaseURL = settings.LLM.BaseURL
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keySpacesRoot, settings.SpacesRoot},
		{keyStoreDriver, string(settings.Store.Driver)},
		{keyStoreDSN, settings.Store.DSN},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedRate, settings.Embedding.RatePerSecond},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyOCRProvider, string(settings.OCR.Provider)},
		{keyOCRModel, settings.OCR.Model},
		{keyOCRBaseURL, settings.OCR.BaseURL},
		{keyOCRLanguage, settings.OCR.Language},
		{keyAssetsProvider, string(settings.Assets.Provider)},
		{keyAssetsEndpoint, settings.Assets.Endpoint},
		{keyAssetsBucket, settings.Assets.Bucket},
		{keyAssetsSecure, settings.Assets.Secure},
		{keyScoringWeight, settings.Scoring.TokenWeight},
		{keyScoringCost, settings.Scoring.CostPerWord},
		{keyCallsTimeout, int(settings.Calls.Timeout / time.Second)},
		{keyCallsAttempts, settings.Calls.MaxAttempts},
		{keyCallsBackoff, int(settings.Calls.InitialBackoff / time.Millisecond)},
		{keyCallsMaxBackoff, int(settings.Calls.MaxBackoff / time.Millisecond)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when present so an empty form never wipes them.
	secrets := map[string]string{
		keyEmbedAPIKey:     settings.Embedding.APIKey,
		keyLLMAPIKey:       settings.LLM.APIKey,
		keyAssetsAccessKey: settings.Assets.AccessKey,
		keyAssetsSecretKey: settings.Assets.SecretKey,
	}
	for key, val := range secrets {
		if val == "" {
			continue
		}
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey
	settings.Embedding.Dimensions = 0

	return s.Save(settings)
}

// SetLLMProvider configures the answer provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if settings.Store.Driver == domain.StoreDriverPostgres && settings.Store.DSN == "" {
		return fmt.Errorf("store driver postgres requires %s", keyStoreDSN)
	}
	if settings.Assets.Provider == domain.AssetProviderMinIO &&
		(settings.Assets.Endpoint == "" || settings.Assets.Bucket == "") {
		return fmt.Errorf("asset provider minio requires %s and %s", keyAssetsEndpoint, keyAssetsBucket)
	}
	if settings.Scoring.TokenWeight < 0 || settings.Scoring.CostPerWord < 0 {
		return fmt.Errorf("scoring constants must not be negative")
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig pings the embedding provider and checks the vector length of a known model.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, unit, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * unit
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStoreDriver(defaultVal domain.StoreDriver) domain.StoreDriver {
	driver := domain.StoreDriver(s.configStore.GetString(keyStoreDriver))
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}

func (s *SettingsService) getOCRProvider(defaultVal domain.OCRProvider) domain.OCRProvider {
	provider := domain.OCRProvider(s.configStore.GetString(keyOCRProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getAssetProvider(defaultVal domain.AssetProvider) domain.AssetProvider {
	provider := domain.AssetProvider(s.configStore.GetString(keyAssetsProvider))
	if provider != domain.AssetProviderFilesystem && provider != domain.AssetProviderMinIO {
		return defaultVal
	}
	return provider
}
