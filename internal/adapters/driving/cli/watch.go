package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/spaces/internal/adapters/driving/watcher"
	"github.com/custodia-labs/spaces/internal/core/domain"
)

var (
	watchForce    bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [space...]",
	Short: "Index documents as they are added",
	Long: `Watches the spaces root and indexes every document copied into a space
folder once it stops changing. With no arguments every space is watched,
including spaces created while running. Stop with Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchForce, "force", false, "reprocess pages that are already indexed")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce,
		"how long a file must be unchanged before indexing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := loadServices(cmd); err != nil {
		return err
	}
	if ingestionService == nil {
		return notConfigured("ingestion")
	}

	w := watcher.New(ingestionService, watcher.Config{
		Root:     spacesRoot,
		Spaces:   args,
		Debounce: watchDebounce,
		Force:    watchForce,
		OnIndexed: func(req domain.IngestRequest, summary *domain.IngestionSummary, err error) {
			if err != nil {
				cmd.PrintErrln(errorStyle.Render(fmt.Sprintf("%s: %v", filepath.Base(req.Path), err)))
				return
			}
			outputSummaries(cmd, []*domain.IngestionSummary{summary})
		},
	})

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", spacesRoot)
	return w.Run(commandContext(cmd))
}
