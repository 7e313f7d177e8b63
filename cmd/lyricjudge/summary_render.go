package main

import (
	"fmt"
	"io"
	"strconv"

	"lyricjudge/internal/language"
	"lyricjudge/internal/report"
)

// runSummary is the JSON shape of a judged or stored run.
type runSummary struct {
	RunID  string               `json:"run_id,omitempty"`
	Totals report.Totals        `json:"totals"`
	Models []report.ModelCounts `json:"models"`
	Genres []report.GroupStat   `json:"genres"`
	Langs  []report.GroupStat   `json:"langs"`
}

func summarize(runID string, agg *report.Aggregator) runSummary {
	return runSummary{
		RunID:  runID,
		Totals: agg.Totals(),
		Models: agg.ModelSummary(),
		Genres: agg.GenreSummary(),
		Langs:  agg.LangSummary(),
	}
}

func printSummary(out io.Writer, summary runSummary, flagThreshold float64) {
	modelRows := make([][]string, 0, len(summary.Models)+1)
	for _, m := range summary.Models {
		modelRows = append(modelRows, modelRow(m.Model, m))
	}
	if len(summary.Models) > 1 {
		modelRows = append(modelRows, modelRow("total", summary.Totals.Labels))
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Model", "Correct", "Refuse", "Hallucinate", "Error", "Total"},
		modelRows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))

	for _, group := range []struct {
		title string
		stats []report.GroupStat
		label func(string) string
	}{
		{"Genre", summary.Genres, func(key string) string { return key }},
		{"Language", summary.Langs, languageLabel},
	} {
		if len(group.stats) == 0 {
			continue
		}
		rows := make([][]string, 0, len(group.stats))
		for _, g := range group.stats {
			rows = append(rows, []string{group.label(g.Key), strconv.Itoa(g.Count), fmt.Sprintf("%.4f", g.AvgContainment)})
		}
		fmt.Fprintln(out, renderTable(out,
			[]string{group.title, "Count", "Avg containment"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight},
		))
	}

	fmt.Fprintf(out, "outputs=%d  avg_containment=%.3f  flagged@%s=%d\n",
		summary.Totals.Rows, summary.Totals.AvgContainment,
		strconv.FormatFloat(flagThreshold, 'f', -1, 64), summary.Totals.Flagged)
}

// languageLabel renders a language key as "German (de)".
func languageLabel(code string) string {
	return fmt.Sprintf("%s (%s)", language.DisplayName(code), code)
}

func modelRow(name string, m report.ModelCounts) []string {
	return []string{
		name,
		strconv.Itoa(m.Correct),
		strconv.Itoa(m.Refuse),
		strconv.Itoa(m.Hallucinate),
		strconv.Itoa(m.Error),
		strconv.Itoa(m.Total),
	}
}
