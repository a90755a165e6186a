package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/echoverse/echoverse/internal/app"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	// Version needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		info := app.GetVersionInfo()
		out := cmd.OutOrStdout()
		if JSONOutput() {
			return printJSON(out, struct {
				app.VersionInfo
				GoVersion string `json:"go_version"`
				Platform  string `json:"platform"`
			}{info, runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH})
		}

		fmt.Fprintln(out, info.FullString())
		if Verbose() {
			fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
