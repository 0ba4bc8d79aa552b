package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var flagStatsRecent int

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show processing statistics from the database",
		RunE:  runStats,
	}
	cmd.Flags().IntVar(&flagStatsRecent, "recent", 10, "Number of recently processed events to list")
	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	st, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	stats, err := st.Stats(ctx)
	if err != nil {
		return fmt.Errorf("reading statistics: %w", err)
	}

	fmt.Printf("Database: %s\n\n", cfg.Database.File)
	fmt.Printf("Events processed: %d\n", stats.Total)
	fmt.Printf("  completed:      %d\n", stats.Completed)
	fmt.Printf("  failed:         %d\n", stats.Failed)
	fmt.Printf("  partial:        %d\n", stats.Partial)
	fmt.Printf("Matches stored:   %d\n", stats.TotalMatches)
	if stats.FirstProcessed != "" {
		fmt.Printf("First processed:  %s\n", stats.FirstProcessed)
		fmt.Printf("Last processed:   %s\n", stats.LastProcessed)
	}

	if flagStatsRecent <= 0 {
		return nil
	}

	recent, err := st.RecentEvents(ctx, flagStatsRecent)
	if err != nil {
		return fmt.Errorf("reading recent events: %w", err)
	}
	if len(recent) == 0 {
		return nil
	}

	fmt.Printf("\nRecently processed:\n")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EVENT\tNAME\tYEAR\tMATCHES\tSTATUS\tPROCESSED")
	for _, e := range recent {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n",
			e.EventID, e.Name, e.Year, e.MatchesCount, e.Status, e.ProcessedAt)
	}
	return w.Flush()
}
