package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var spaceJSON bool

var spaceCmd = &cobra.Command{
	Use:   "space",
	Short: "Inspect spaces",
	Long:  `Commands for listing spaces and the files indexed into them.`,
}

var spaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List spaces",
	Args:  cobra.NoArgs,
	RunE:  runSpaceList,
}

var spaceFilesCmd = &cobra.Command{
	Use:   "files [space]",
	Short: "List the files of a space",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpaceFiles,
}

func init() {
	spaceCmd.PersistentFlags().BoolVar(&spaceJSON, "json", false, "output as JSON")
	spaceCmd.AddCommand(spaceListCmd)
	spaceCmd.AddCommand(spaceFilesCmd)
	rootCmd.AddCommand(spaceCmd)
}

func runSpaceList(cmd *cobra.Command, _ []string) error {
	if err := loadServices(cmd); err != nil {
		return err
	}
	if spaceService == nil {
		return notConfigured("space")
	}

	spaces, err := spaceService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list spaces: %w", err)
	}
	if spaceJSON {
		return writeJSON(cmd, spaces)
	}

	if len(spaces) == 0 {
		cmd.Println("No spaces yet. Index a document with 'spaces index <space> <file>'.")
		return nil
	}
	for _, s := range spaces {
		cmd.Printf("%s %s\n", sourceStyle.Render(s.Name), mutedStyle.Render(fmt.Sprintf("%.2f MB", s.TotalSizeMB)))
	}
	return nil
}

func runSpaceFiles(cmd *cobra.Command, args []string) error {
	if err := loadServices(cmd); err != nil {
		return err
	}
	if spaceService == nil {
		return notConfigured("space")
	}

	files, err := spaceService.Files(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	if spaceJSON {
		return writeJSON(cmd, files)
	}

	if len(files) == 0 {
		cmd.Printf("No files in space %q.\n", args[0])
		return nil
	}
	for _, f := range files {
		status := warningStyle.Render("not indexed")
		if f.Indexed {
			status = successStyle.Render("indexed")
		}
		cmd.Printf("%s %s %s\n", sourceStyle.Render(f.Name),
			mutedStyle.Render(fmt.Sprintf("%.2f MB", f.SizeMB)), status)
	}
	return nil
}
