package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aerialtv/aerial/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Aerial daemon",
	Long: `Migrate the config and store to current, run the sanity pass, then start
the HTTP API server.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := daemon.NewAt(home())
	if err != nil {
		return err
	}

	if serveHost != "" {
		d.Settings.WebHost = serveHost
	}
	if servePort > 0 {
		d.Settings.WebPort = servePort
	}

	return d.Serve(context.Background())
}
