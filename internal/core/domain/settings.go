package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or answers.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGoogle is Google Gemini cloud API.
	AIProviderGoogle AIProvider = "google"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGoogle:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGoogle
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGoogle:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Google).
	APIKey string

	// Dimensions overrides the known dimension of Model. Zero means lookup.
	Dimensions int

	// RatePerSecond throttles embedding calls. Zero disables throttling.
	RatePerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds answer provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic/Google).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// OCRProvider identifies a text extraction backend.
type OCRProvider string

// Available OCR providers.
const (
	// OCRProviderTesseract runs the tesseract CLI.
	OCRProviderTesseract OCRProvider = "tesseract"

	// OCRProviderOllama sends the page image to an Ollama vision model.
	OCRProviderOllama OCRProvider = "ollama"
)

// IsValid returns true if the OCR provider is recognised.
func (p OCRProvider) IsValid() bool {
	return p == OCRProviderTesseract || p == OCRProviderOllama
}

// OCRSettings holds text extraction configuration.
type OCRSettings struct {
	Provider OCRProvider
	Model    string
	BaseURL  string

	// Language is passed to tesseract as -l.
	Language string
}

// StoreDriver identifies the persistence backend.
type StoreDriver string

// Available store drivers.
const (
	StoreDriverSQLite   StoreDriver = "sqlite"
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverMemory   StoreDriver = "memory"
)

// IsValid returns true if the driver is recognised.
func (d StoreDriver) IsValid() bool {
	switch d {
	case StoreDriverSQLite, StoreDriverPostgres, StoreDriverMemory:
		return true
	default:
		return false
	}
}

// StoreSettings holds persistence configuration.
type StoreSettings struct {
	Driver StoreDriver

	// DSN is the connection string for postgres, or the database path for sqlite.
	DSN string
}

// AssetProvider identifies where page images are published.
type AssetProvider string

// Available asset providers.
const (
	AssetProviderFilesystem AssetProvider = "filesystem"
	AssetProviderMinIO      AssetProvider = "minio"
)

// AssetSettings holds page image storage configuration.
type AssetSettings struct {
	Provider  AssetProvider
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Secure    bool
}

// ScoringSettings holds ranking and cost constants.
type ScoringSettings struct {
	// TokenWeight scales the length boost: score = sim * (1 + TokenWeight*tokens).
	TokenWeight float64

	// CostPerWord is multiplied by the word count of the embedded content.
	CostPerWord float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	// SpacesRoot is the folder holding one sub-folder per space.
	SpacesRoot string

	Store     StoreSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	OCR       OCRSettings
	Assets    AssetSettings
	Scoring   ScoringSettings
	Calls     CallPolicy
}

// Default scoring constants.
const (
	DefaultTokenWeight = 0.01
	DefaultCostPerWord = 0.0001
)

// DefaultAppSettings returns settings with sensible defaults.
// Everything runs locally: sqlite, Ollama and tesseract.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		SpacesRoot: "space",
		Store: StoreSettings{
			Driver: StoreDriverSQLite,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    "llama3.2",
			BaseURL:  "http://localhost:11434",
		},
		OCR: OCRSettings{
			Provider: OCRProviderTesseract,
			Language: "eng",
		},
		Assets: AssetSettings{
			Provider: AssetProviderFilesystem,
		},
		Scoring: ScoringSettings{
			TokenWeight: DefaultTokenWeight,
			CostPerWord: DefaultCostPerWord,
		},
		Calls: DefaultCallPolicy(),
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGoogle,
	}
}

// AllLLMProviders returns providers that support answer generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGoogle,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGoogle: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGoogle:    "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Google models
		"text-embedding-004": 768,
		"embedding-001":      768,
	}
}

// DimensionsFor returns the configured or known dimension for a model, or 0.
func (e EmbeddingSettings) DimensionsFor() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	return EmbeddingDimensions()[e.Model]
}

// TimeoutOrDefault returns the call timeout, falling back to the default.
func (p CallPolicy) TimeoutOrDefault() time.Duration {
	if p.Timeout <= 0 {
		return DefaultCallPolicy().Timeout
	}
	return p.Timeout
}
