package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Aliases: []string{"database"},
		Short:   "Inspect the SQLite database",
	}

	cmd.AddCommand(newDBStatsCmd())

	return cmd
}

// ---------- db stats ----------

func newDBStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the database location, size and row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBStats(cmd.Context(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runDBStats(ctx context.Context, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg, stderrLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	counts, err := st.Counts(ctx)
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}
	_, size, err := st.FileInfo()
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"path":   st.Path(),
			"size":   size,
			"counts": counts,
		})
	}

	fmt.Printf("Database: %s (%d bytes)\n", st.Path(), size)
	fmt.Printf("  users:   %d\n", counts.Users)
	fmt.Printf("  numbers: %d\n", counts.Numbers)
	fmt.Printf("  admins:  %d\n", counts.Admins)
	return nil
}
