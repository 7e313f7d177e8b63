package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lyricjudge/internal/refusal"
)

func newPatternsCommand(ctx *commandContext) *cobra.Command {
	var refusals string
	var check string

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show the active refusal patterns or test a text against them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Paths.RefusalPatterns
			if cmd.Flags().Changed("refusals") {
				path = refusals
			}
			res := refusal.Load(path)
			out := cmd.OutOrStdout()

			if cmd.Flags().Changed("check") {
				pattern, matched := res.Set.Match(check)
				fmt.Fprintf(out, "refusal: %s\n", yesNo(matched))
				if matched {
					fmt.Fprintf(out, "pattern: %s\n", pattern)
				}
				return nil
			}

			fmt.Fprintf(out, "Source: %s\n", res.Source)
			if res.Path != "" {
				fmt.Fprintf(out, "Path:   %s\n", res.Path)
			}
			if res.Reason != "" {
				fmt.Fprintf(out, "Reason: %s\n", res.Reason)
			}
			rows := make([][]string, 0, res.Set.Len())
			for i, p := range res.Set.Patterns() {
				rows = append(rows, []string{strconv.Itoa(i + 1), p})
			}
			fmt.Fprintln(out, renderTable(out, []string{"#", "Pattern"}, rows, []columnAlignment{alignRight, alignLeft}))
			for _, d := range res.Dropped {
				fmt.Fprintf(out, "dropped: %s (%v)\n", d.Pattern, d.Err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&refusals, "refusals", "", "Refusal pattern file (defaults to paths.refusal_patterns)")
	cmd.Flags().StringVar(&check, "check", "", "Report whether TEXT is classified as a refusal")
	return cmd
}
