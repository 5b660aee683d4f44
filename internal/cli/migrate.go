package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aerialtv/aerial/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the library store schema current",
	Long: `Run every pending schema migration step, taking a versioned backup of the
store before each step, then run the sanity pass over the result. A fresh
store is created at the base schema first.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := sqlite.Open(home())
	if err != nil {
		return err
	}
	defer db.Close()

	before, err := db.Version()
	if err != nil {
		return err
	}

	if err := db.Migrate(sqlite.DiskFileExists); err != nil {
		return err
	}

	after, err := db.Version()
	if err != nil {
		return err
	}

	if before.IsZero() {
		fmt.Printf("created store, migrated to schema %s\n", after)
	} else if before.Compare(after) == 0 {
		fmt.Printf("store already current at schema %s\n", after)
	} else {
		fmt.Printf("migrated store from schema %s to %s\n", before, after)
	}

	repairs := 0
	for _, res := range db.SanityCheck(sqlite.DiskFileExists) {
		repairs += res.Fixed
	}
	fmt.Printf("sanity pass complete, %d repairs\n", repairs)
	return nil
}
