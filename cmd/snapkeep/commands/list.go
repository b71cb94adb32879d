package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list-snapshots",
	Short: "List available snapshots",
	Long: `List every snapshot under the backup base, newest first.

Snapshot directories whose manifest cannot be read are skipped and reported
as warnings.`,
	Example: `  # List snapshots
  snapkeep list-snapshots

  # Output as JSON
  snapkeep list-snapshots --json

  See Also:
    snapkeep restore-snapshot - Restore from a snapshot
    snapkeep create-snapshot  - Create a new snapshot`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// listOutput is the JSON shape of list-snapshots.
type listOutput struct {
	BackupBase string             `json:"backup_base"`
	Snapshots  []snapshot.Summary `json:"snapshots"`
	Problems   []problemOutput    `json:"problems,omitempty"`
}

type problemOutput struct {
	Dir   string `json:"dir"`
	Error string `json:"error"`
}

func runList(cmd *cobra.Command, _ []string) error {
	return runListWithWriter(cmd.Context(), os.Stdout, appConfig, listJSON)
}

func runListWithWriter(ctx context.Context, w io.Writer, cfg *config.Config, asJSON bool) error {
	logger := logging.FromContext(ctx)
	mgr := newManager(cfg, logger)

	res, err := mgr.List(ctx)
	if err != nil {
		return mapError(err)
	}

	for _, p := range res.Problems {
		logger.Warn("skipping unreadable snapshot", "dir", p.Dir, "error", p.Err)
	}

	if asJSON {
		out := listOutput{
			BackupBase: mgr.BackupBase(),
			Snapshots:  res.Snapshots,
		}
		if out.Snapshots == nil {
			out.Snapshots = []snapshot.Summary{}
		}
		for _, p := range res.Problems {
			out.Problems = append(out.Problems, problemOutput{Dir: p.Dir, Error: p.Err.Error()})
		}
		return writeJSON(w, out)
	}

	if len(res.Snapshots) == 0 {
		fmt.Fprintln(w, "No snapshots available")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Create one with: snapkeep create-snapshot")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", bold("ID"), bold("CREATED"), bold("FILES"), bold("FAILED"), bold("SIZE"))
	for _, s := range res.Snapshots {
		failed := fmt.Sprint(s.Failed)
		if s.Failed > 0 {
			failed = yellow(failed)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			green(s.ID),
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			s.Captured,
			failed,
			bytesString(s.TotalBytes))
	}
	tw.Flush()

	if n := len(res.Problems); n > 0 {
		fmt.Fprintf(w, "\n%s %d snapshot directories could not be read (see -v)\n", yellow("!"), n)
	}
	return nil
}
