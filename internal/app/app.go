// Package app wires configuration, adapters and services into the set the
// CLI runs against.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/spaces/internal/adapters/driven/ai"
	"github.com/custodia-labs/spaces/internal/adapters/driven/assets/filesystem"
	"github.com/custodia-labs/spaces/internal/adapters/driven/assets/minio"
	"github.com/custodia-labs/spaces/internal/adapters/driven/config/env"
	"github.com/custodia-labs/spaces/internal/adapters/driven/config/file"
	ollamaocr "github.com/custodia-labs/spaces/internal/adapters/driven/ocr/ollama"
	"github.com/custodia-labs/spaces/internal/adapters/driven/ocr/tesseract"
	"github.com/custodia-labs/spaces/internal/adapters/driven/raster/poppler"
	"github.com/custodia-labs/spaces/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/spaces/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/spaces/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/spaces/internal/adapters/driving/cli"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
	"github.com/custodia-labs/spaces/internal/core/ports/driving"
	"github.com/custodia-labs/spaces/internal/core/services"
	"github.com/custodia-labs/spaces/internal/logger"
)

// Loader builds services for the CLI on demand.
type Loader struct{}

// Ensure Loader implements the interface.
var _ cli.Loader = Loader{}

// Settings opens the settings service without touching any provider.
func (Loader) Settings(configDir string) (driving.SettingsService, error) {
	if err := env.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	_, svc, err := openSettings(configDir)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// Services builds every service.
func (Loader) Services(ctx context.Context, configDir string) (*cli.Services, func(), error) {
	return Build(ctx, configDir)
}

func openSettings(configDir string) (*file.ConfigStore, *services.SettingsService, error) {
	fileStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	return fileStore, services.NewSettingsService(env.NewOverlay(fileStore), ai.NewConfigValidator()), nil
}

// Build loads settings from configDir (default ~/.spaces), layered under
// .env and SPACES_* variables, and constructs every service. The returned
// func releases the store and the AI clients.
func Build(ctx context.Context, configDir string) (*cli.Services, func(), error) {
	if err := env.LoadDotEnv(); err != nil {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}

	fileStore, settingsSvc, err := openSettings(configDir)
	if err != nil {
		return nil, nil, err
	}

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("read settings: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(filepath.Dir(fileStore.Path()), "prompts"))
	if err != nil {
		return nil, nil, err
	}

	logger.Section("Startup")
	store, err := OpenStore(ctx, settings.Store)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Store: %s", settings.Store.Driver)

	aiResult, err := ai.Initialise(ctx, &settings.Embedding, &settings.LLM, prompts)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	for _, w := range aiResult.Warnings {
		logger.Warn("%s", w)
	}

	extractor, err := NewExtractor(settings.OCR, prompts)
	if err != nil {
		aiResult.Close()
		store.Close()
		return nil, nil, err
	}
	logger.Debug("Extractor: %s", extractor.Name())

	assets, err := NewAssetStore(ctx, settings.Assets, settings.SpacesRoot)
	if err != nil {
		aiResult.Close()
		store.Close()
		return nil, nil, err
	}

	retrieval := services.NewRetrievalService(store, aiResult.EmbeddingService, settings.Scoring, settings.Calls)
	conversations := services.NewConversationService(store, aiResult.EmbeddingService, settings.Calls)
	ingestion := services.NewIngestionService(
		store,
		poppler.NewRasterizer(poppler.Config{}),
		extractor,
		aiResult.EmbeddingService,
		assets,
		services.IngestionConfig{
			SpacesRoot:  settings.SpacesRoot,
			CostPerWord: settings.Scoring.CostPerWord,
			Policy:      settings.Calls,
		},
	)

	svcs := &cli.Services{
		Ingestion:     ingestion,
		Retrieval:     retrieval,
		Conversations: conversations,
		Spaces:        services.NewSpaceService(store),
		Settings:      settingsSvc,
		SpacesRoot:    settings.SpacesRoot,
	}
	if aiResult.AnswerProvider != nil {
		svcs.Chat = services.NewChatService(retrieval, conversations, aiResult.AnswerProvider, settings.Calls)
	}

	cleanup := func() {
		aiResult.Close()
		if err := store.Close(); err != nil {
			logger.Warn("Closing store: %v", err)
		}
	}
	return svcs, cleanup, nil
}

// OpenStore opens the configured persistence backend.
func OpenStore(ctx context.Context, s domain.StoreSettings) (driven.Store, error) {
	switch s.Driver {
	case domain.StoreDriverSQLite, "":
		store, err := sqlite.NewStore(s.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case domain.StoreDriverPostgres:
		store, err := postgres.NewStore(ctx, s.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case domain.StoreDriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", domain.ErrInvalidInput, s.Driver)
	}
}

// NewExtractor creates the configured page extractor.
func NewExtractor(s domain.OCRSettings, prompts driven.PromptStore) (driven.PageExtractor, error) {
	switch s.Provider {
	case domain.OCRProviderTesseract, "":
		return tesseract.NewExtractor(tesseract.Config{Language: s.Language}), nil
	case domain.OCRProviderOllama:
		extractor, err := ollamaocr.NewExtractor(ollamaocr.Config{
			BaseURL: s.BaseURL,
			Model:   s.Model,
			Prompts: prompts,
		})
		if err != nil {
			return nil, err
		}
		return extractor, nil
	default:
		return nil, fmt.Errorf("%w: unknown ocr provider %q", domain.ErrInvalidInput, s.Provider)
	}
}

// NewAssetStore creates the configured page image store. The filesystem
// backend publishes under the spaces root, where the rasterizer already
// writes, so images are recorded in place.
func NewAssetStore(ctx context.Context, s domain.AssetSettings, spacesRoot string) (driven.AssetStore, error) {
	switch s.Provider {
	case domain.AssetProviderFilesystem, "":
		store, err := filesystem.NewStore(spacesRoot)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.AssetProviderMinIO:
		store, err := minio.NewStore(ctx, minio.Config{
			Endpoint:  s.Endpoint,
			Bucket:    s.Bucket,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Secure:    s.Secure,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown asset provider %q", domain.ErrInvalidInput, s.Provider)
	}
}
