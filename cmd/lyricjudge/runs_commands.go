package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lyricjudge/internal/report"
	"lyricjudge/internal/resultstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded judge runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsRemoveCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *resultstore.Store) error {
				runs, err := store.ListRuns(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					if runs == nil {
						runs = []resultstore.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						shortID(r.ID),
						r.StartedAt.Local().Format("2006-01-02 15:04:05"),
						r.OutputsDir,
						strconv.Itoa(r.Rows),
						strconv.Itoa(r.Flagged),
						r.PatternSource,
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Started", "Outputs", "Rows", "Flagged", "Patterns"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show the settings and summaries of one run (id or unique prefix)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *resultstore.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rows, err := store.Rows(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				agg := report.NewAggregator()
				agg.AddAll(rows)
				summary := summarize(run.ID, agg)

				if asJSON {
					return writeJSON(cmd, struct {
						Run resultstore.Run `json:"run"`
						runSummary
					}{run, summary})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:               %s\n", run.ID)
				fmt.Fprintf(out, "Started:           %s\n", run.StartedAt.Local().Format(time.RFC3339))
				fmt.Fprintf(out, "Duration:          %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
				fmt.Fprintf(out, "Corpus:            %s (%d documents)\n", run.CorpusDir, run.Documents)
				fmt.Fprintf(out, "Outputs:           %s\n", run.OutputsDir)
				fmt.Fprintf(out, "Shingle size:      %d\n", run.ShingleSize)
				fmt.Fprintf(out, "Correct threshold: %s\n", strconv.FormatFloat(run.CorrectThreshold, 'f', -1, 64))
				fmt.Fprintf(out, "Patterns:          %s\n", run.PatternSource)
				fmt.Fprintln(out)
				printSummary(out, summary, run.FlagThreshold)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON")
	return cmd
}

func newRunsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove RUN_ID...",
		Short: "Delete recorded runs and their rows (id or unique prefix)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *resultstore.Store) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					run, err := store.GetRun(cmd.Context(), arg)
					if err != nil {
						return err
					}
					if err := store.DeleteRun(cmd.Context(), run.ID); err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed run %s\n", run.ID)
				}
				return nil
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
