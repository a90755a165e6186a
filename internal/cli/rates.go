package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/echoverse/echoverse/internal/adapter/ratetable"
	"github.com/echoverse/echoverse/internal/domain"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show the per-second rate table",
	Long: `Shows the rate applied to each track. Tracks missing from the
table accrue at the default rate.`,
	RunE: runRates,
}

func init() {
	rootCmd.AddCommand(ratesCmd)
}

func runRates(cmd *cobra.Command, args []string) error {
	entries := ratetable.Builtin()
	if cfg.Rates.File != "" {
		loaded, err := ratetable.LoadFile(cfg.Rates.File)
		if err != nil {
			return err
		}
		entries = loaded
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return printJSON(out, map[string]any{
			"default": domain.DefaultRate,
			"tracks":  entries,
		})
	}

	t := NewTable(out, "TRACK", "RATE/S", "TIER")
	for _, id := range slices.Sorted(maps.Keys(entries)) {
		e := entries[id]
		t.Row(id, e.Rate.String(), string(e.Tier))
	}
	t.Flush()
	fmt.Fprintf(out, "\nDefault rate: %s/s\n", domain.DefaultRate)
	return nil
}
