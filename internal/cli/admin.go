package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagExportDir  string
	flagResetForce bool
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all tables to CSV files",
		RunE:  runExport,
	}
	cmd.Flags().StringVar(&flagExportDir, "out", "exports", "Directory to create the export under")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	dir, err := st.ExportCSV(cmd.Context(), flagExportDir)
	if err != nil {
		return fmt.Errorf("exporting database: %w", err)
	}
	fmt.Printf("Exported to %s\n", dir)
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all harvested data from the database",
		RunE:  runReset,
	}
	cmd.Flags().BoolVar(&flagResetForce, "yes", false, "Confirm the deletion")
	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	if !flagResetForce {
		return fmt.Errorf("refusing to delete all data without --yes")
	}

	st, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("resetting database: %w", err)
	}
	fmt.Printf("All data deleted from %s\n", cfg.Database.File)
	return nil
}
