package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aerialtv/aerial/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the sanity pass over the library store",
	Long: `Run every sanity check once: rebuild missing indexes, drop duplicate and
orphaned rows, and normalize invalid field values. Checks are idempotent; a
clean store comes back untouched.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	db, err := sqlite.Open(home())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.QuickCheck(); err != nil {
		return fmt.Errorf("store failed integrity check: %w", err)
	}

	total := 0
	for _, res := range db.SanityCheck(sqlite.DiskFileExists) {
		switch {
		case res.Error != "":
			fmt.Printf("  %-24s FAILED: %s\n", res.Name, res.Error)
		case res.Fixed > 0:
			fmt.Printf("  %-24s repaired %d rows\n", res.Name, res.Fixed)
			total += res.Fixed
		default:
			fmt.Printf("  %-24s ok\n", res.Name)
		}
	}
	fmt.Printf("sanity pass complete, %d repairs\n", total)
	return nil
}
