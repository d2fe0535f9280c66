// Package main provides the ecotrack CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	serveCmd := newServeCmd()

	rootCmd := &cobra.Command{
		Use:   "ecotrack",
		Short: "EcoTrack environmental impact API",
		Long: `EcoTrack scores daily lifestyle habits for carbon, water, energy and waste
impact, and offers tips, analysis and chat on top of the scores.

Running ecotrack without a subcommand starts the HTTP server.`,
		Version:      version,
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}

	rootCmd.AddCommand(
		serveCmd,
		newMigrateCmd(),
		newScoreCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
