package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aerialtv/aerial/internal/infra/sqlite"
	"github.com/aerialtv/aerial/internal/settings"
)

func init() {
	configCmd.AddCommand(configMigrateCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config store maintenance",
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the config file layout current",
	Long: `Run every pending config migration step, taking a versioned backup of the
config file before each step. The store is opened read-mostly: one step
consults show flags to decide how to convert folder naming.`,
	RunE: runConfigMigrate,
}

func runConfigMigrate(cmd *cobra.Command, args []string) error {
	db, err := sqlite.Open(home())
	if err != nil {
		return err
	}
	defer db.Close()

	path := filepath.Join(home(), "config.toml")
	cfg, _, err := settings.Load(path, db.Conn)
	if err != nil {
		return err
	}

	fmt.Printf("config at %s is current at version %d\n", path, cfg.ConfigVersion)
	return nil
}
