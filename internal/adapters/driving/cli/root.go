// Package cli provides the spaces command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/spaces/internal/core/ports/driving"
	"github.com/custodia-labs/spaces/internal/logger"
)

// Loader builds the services commands run against. It is called at most
// once per process, on the first command that needs it.
type Loader interface {
	// Settings opens the settings service alone, without connecting to any
	// provider, so a broken configuration can still be inspected and fixed.
	Settings(configDir string) (driving.SettingsService, error)

	// Services builds every service. The returned func releases them.
	Services(ctx context.Context, configDir string) (*Services, func(), error)
}

// Services holds the driving ports used by commands.
type Services struct {
	Ingestion     driving.IngestionService
	Retrieval     driving.RetrievalService
	Chat          driving.ChatService // nil when no answer provider is configured
	Conversations driving.ConversationService
	Spaces        driving.SpaceService
	Settings      driving.SettingsService

	// SpacesRoot is the folder holding one sub-folder per space.
	SpacesRoot string
}

var (
	version = "dev"

	configDir string
	verbose   bool

	loader   Loader
	loaded   bool
	closeFns []func()
)

// Services used by commands. Tests replace them directly.
var (
	ingestionService    driving.IngestionService
	retrievalService    driving.RetrievalService
	chatService         driving.ChatService
	conversationService driving.ConversationService
	spaceService        driving.SpaceService
	settingsService     driving.SettingsService
	spacesRoot          = "space"
)

var rootCmd = &cobra.Command{
	Use:   "spaces",
	Short: "Index scanned documents and ask questions about them",
	Long: `Spaces indexes PDFs and page images into named spaces.

Every page is rendered, read with OCR, embedded and stored. Questions are
answered from the best matching pages, with citations, and every exchange
is kept as conversation history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.spaces)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetLoader installs the loader used to build services on demand.
func SetLoader(l Loader) {
	loader = l
}

// SetServices installs already built services.
func SetServices(s *Services) {
	ingestionService = s.Ingestion
	retrievalService = s.Retrieval
	chatService = s.Chat
	conversationService = s.Conversations
	spaceService = s.Spaces
	settingsService = s.Settings
	if s.SpacesRoot != "" {
		spacesRoot = s.SpacesRoot
	}
	loaded = true
}

// ExecuteContext runs the root command under ctx. Cancelling ctx stops
// long running commands such as watch and mcp.
func ExecuteContext(ctx context.Context, v string) error {
	version = v
	defer shutdown()
	return rootCmd.ExecuteContext(ctx)
}

// loadServices builds the full service set through the loader on first use.
// Without a loader the package-level services are used as they are.
func loadServices(cmd *cobra.Command) error {
	if loaded || loader == nil {
		return nil
	}
	s, closeFn, err := loader.Services(commandContext(cmd), configDir)
	if err != nil {
		return err
	}
	SetServices(s)
	closeFns = append(closeFns, closeFn)
	return nil
}

// loadSettings opens only the settings service.
func loadSettings() error {
	if settingsService != nil || loader == nil {
		return nil
	}
	s, err := loader.Settings(configDir)
	if err != nil {
		return err
	}
	settingsService = s
	return nil
}

func shutdown() {
	for _, fn := range closeFns {
		fn()
	}
	closeFns = nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func notConfigured(name string) error {
	return errors.New(name + " service not configured")
}
