package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

var (
	indexForce bool
	indexJSON  bool
)

var indexCmd = &cobra.Command{
	Use:   "index [space] [path...]",
	Short: "Index documents into a space",
	Long: `Renders, reads and embeds every page of the given documents.

With no paths, every supported document in the space folder is indexed.
Pages that are already indexed are skipped unless --force is given.
A page that fails is reported and the rest of the document still indexes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "reprocess pages that are already indexed")
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output summaries as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := loadServices(cmd); err != nil {
		return err
	}
	if ingestionService == nil {
		return notConfigured("ingestion")
	}

	ctx := commandContext(cmd)
	space := args[0]

	var summaries []*domain.IngestionSummary
	var indexErr error
	if len(args) == 1 {
		summaries, indexErr = ingestionService.IngestSpace(ctx, space, indexForce)
	} else {
		for _, path := range args[1:] {
			summary, err := ingestionService.Ingest(ctx, domain.IngestRequest{
				Space: space,
				Path:  path,
				Force: indexForce,
			})
			if err != nil {
				cmd.PrintErrln(errorStyle.Render(fmt.Sprintf("%s: %v", path, err)))
				indexErr = err
				continue
			}
			summaries = append(summaries, summary)
		}
	}

	if indexJSON {
		if err := writeJSON(cmd, summaries); err != nil {
			return err
		}
	} else {
		outputSummaries(cmd, summaries)
	}

	if indexErr != nil {
		return fmt.Errorf("indexing failed: %w", indexErr)
	}
	return nil
}

func outputSummaries(cmd *cobra.Command, summaries []*domain.IngestionSummary) {
	if len(summaries) == 0 {
		cmd.Println("No documents indexed.")
		return
	}

	for _, s := range summaries {
		status := successStyle.Render("ok")
		if s.PagesFailed > 0 {
			status = warningStyle.Render(fmt.Sprintf("%d failed", s.PagesFailed))
		}
		cmd.Printf("%s %s: %d pages, %d indexed, %d skipped [%s]\n",
			sourceStyle.Render(s.Space+"/"+s.Source),
			mutedStyle.Render(s.AssetFolder),
			s.PagesTotal, s.PagesIndexed, s.PagesSkipped, status)
		for _, f := range s.Failures {
			cmd.Printf("    page %d (%s): %s\n", f.PageNo, f.Stage, f.Err)
		}
	}
}
