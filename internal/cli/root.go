// Package cli implements the echoverse command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/echoverse/echoverse/internal/app"
	"github.com/echoverse/echoverse/internal/config"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "echoverse",
	Short: "Stream music and pay artists by the second",
	Long: `Echoverse is a music player that meters every second of playback
against a per-track rate, with playlists kept per signed-in user.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./echoverse.toml)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

// newApplication builds the application for a one-shot command.
// Logging is held to warnings unless --verbose is set.
func newApplication(ctx context.Context, opts ...app.Option) (*app.Application, error) {
	c := *cfg
	if !verbose {
		c.Log.Level = "warn"
	}
	return app.NewApplication(ctx, &c, opts...)
}
