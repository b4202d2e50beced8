package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/skillcheck/internal/db"
)

// newHistoryCmd creates the history command.
func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded validation runs",
		Long: `List recent validation runs recorded with --record (or history.enabled).

Examples:
  skillcheck history               # Last 20 runs
  skillcheck history --limit 5
  skillcheck history show <run-id> # Issues of one run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonOut {
				if runs == nil {
					runs = []db.Run{}
				}
				return writeJSON(out, runs)
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "RUN ID\tSTARTED\tRESULT\tCATEGORIES\tLEAF SKILLS\tISSUES")
			for _, run := range runs {
				result := "passed"
				if !run.Passed {
					result = "failed"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
					run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"), result,
					run.Categories, run.LeafSkills, run.IssueCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")

	cmd.AddCommand(newHistoryShowCmd(a))
	return cmd
}

// newHistoryShowCmd creates the 'history show' subcommand.
func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the issues of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := args[0]

			store, err := a.openHistory(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run, err := store.GetRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run not found: %s", runID)
			}
			issues, err := store.RunIssues(cmd.Context(), runID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonOut {
				if issues == nil {
					issues = []db.RunIssue{}
				}
				return writeJSON(out, struct {
					*db.Run
					Issues []db.RunIssue `json:"issues"`
				}{run, issues})
			}

			_, _ = fmt.Fprintf(out, "Run ID: %s\n", run.ID)
			_, _ = fmt.Fprintf(out, "Started: %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
			_, _ = fmt.Fprintf(out, "Base dir: %s\n", run.BaseDir)
			if run.Passed {
				_, _ = fmt.Fprintln(out, "Result: passed")
			} else {
				_, _ = fmt.Fprintln(out, "Result: failed")
			}
			_, _ = fmt.Fprintf(out, "Categories: %d, leaf skills: %d, files: %d\n", run.Categories, run.LeafSkills, run.Files)
			for _, issue := range issues {
				_, _ = fmt.Fprintln(out, " -", issue.Message)
			}
			return nil
		},
	}
}

func (a *app) openHistory(cmd *cobra.Command) (*db.DB, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	return db.Open(cmd.Context(), cfg.History.Driver, cfg.History.DSN)
}
