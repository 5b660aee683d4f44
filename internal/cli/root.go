// Package cli implements the Aerial command-line interface using Cobra.
// Each subcommand maps to one maintenance operation on the library store
// (migrate, check, config) or starts the daemon (serve).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aerialtv/aerial/internal/daemon"
)

var rootCmd = &cobra.Command{
	Use:   "aerial",
	Short: "Aerial — personal TV library manager",
	Long: `Aerial keeps a local library of TV shows and episodes in a SQLite store.
The store and its config file carry explicit versions; every command brings
them current before touching anything, backing both up along the way.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var homeFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&homeFlag, "home", "",
		"Aerial data directory (default $AERIAL_HOME or ~/.aerial)")
}

// home resolves the data directory: flag beats environment beats default.
func home() string {
	if homeFlag != "" {
		return homeFlag
	}
	return daemon.Home()
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
