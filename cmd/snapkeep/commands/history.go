package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/history"
)

var (
	historyLimit int
	historyJSON  bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of events to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent snapshot, restore and lock actions",
	Long: `Show the action journal, newest first. The journal keeps the most recent
history.keep events.`,
	Example: `  snapkeep history
  snapkeep history --limit 5 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runHistoryWithWriter(cmd.Context(), os.Stdout, appConfig, historyLimit, historyJSON)
	},
}

func runHistoryWithWriter(ctx context.Context, w io.Writer, cfg *config.Config, limit int, asJSON bool) error {
	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		return mapError(err)
	}
	defer store.Close()

	events, err := store.List(ctx, limit)
	if err != nil {
		return mapError(err)
	}

	if asJSON {
		if events == nil {
			events = []history.Event{}
		}
		return writeJSON(w, events)
	}

	if len(events) == 0 {
		fmt.Fprintln(w, "No history yet")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", bold("TIME"), bold("ACTION"), bold("RESULT"), bold("SUBJECT"), bold("DETAIL"))
	for _, e := range events {
		result := green("ok")
		if !e.OK {
			result = red("failed")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.At.Local().Format("2006-01-02 15:04:05"),
			e.Action,
			result,
			e.Subject,
			gray(e.Detail))
	}
	return tw.Flush()
}
