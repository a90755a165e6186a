package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/echoverse/echoverse/internal/domain"
)

var importCmd = &cobra.Command{
	Use:   "import <folder|file>...",
	Short: "Import local audio into the content store",
	Long: `Reads tags from local audio files and uploads them to the configured
content store. A single folder argument is scanned recursively.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if Verbose() {
		bus := a.EventBus()
		id := bus.Subscribe(domain.EventScanProgress, func(e domain.Event) {
			if ev, ok := e.(domain.ScanProgressEvent); ok {
				fmt.Fprintf(os.Stderr, "  [%d] %s\n", ev.Progress.FilesScanned, ev.Progress.CurrentFile)
			}
		})
		defer bus.Unsubscribe(id)
	}

	library := a.Services().Library
	var tracks []domain.Track
	if info, statErr := os.Stat(args[0]); len(args) == 1 && statErr == nil && info.IsDir() {
		tracks, err = library.ScanFolder(ctx, args[0])
	} else {
		tracks, err = library.ImportFiles(ctx, args)
	}
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(cmd.OutOrStdout(), tracks)
	}
	t := NewTable(cmd.OutOrStdout(), "TITLE", "ARTIST", "LOCATOR")
	for _, track := range tracks {
		t.Row(TruncateString(track.Title, 32), TruncateString(track.Artist, 24), track.AudioLocator)
	}
	t.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "\nImported %d tracks\n", len(tracks))
	return nil
}
