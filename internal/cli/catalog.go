package cli

import (
	"github.com/spf13/cobra"

	"github.com/echoverse/echoverse/internal/catalog"
	"github.com/echoverse/echoverse/internal/domain"
)

var catalogSearch string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List or search the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracks := catalog.Library()
		if catalogSearch != "" {
			tracks = catalog.Search(catalogSearch)
		}
		return printTracks(cmd, tracks)
	},
}

func init() {
	catalogCmd.Flags().StringVarP(&catalogSearch, "search", "s", "", "filter by title, artist or album")
	rootCmd.AddCommand(catalogCmd)
}

func printTracks(cmd *cobra.Command, tracks []domain.Track) error {
	if tracks == nil {
		tracks = []domain.Track{}
	}
	if JSONOutput() {
		return printJSON(cmd.OutOrStdout(), tracks)
	}

	t := NewTable(cmd.OutOrStdout(), "ID", "TITLE", "ARTIST", "ALBUM", "LENGTH")
	for _, track := range tracks {
		t.Row(track.ID, TruncateString(track.Title, 32), TruncateString(track.Artist, 24),
			TruncateString(track.Album, 24), FormatDuration(track.Duration))
	}
	t.Flush()
	return nil
}
