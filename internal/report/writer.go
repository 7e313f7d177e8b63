package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"lyricjudge/internal/fileutil"
	"lyricjudge/internal/judge"
)

// Table file names inside the results directory.
const (
	RowsFile         = "metrics.csv"
	ModelSummaryFile = "summary_by_model.tsv"
	GenreSummaryFile = "agg_by_genre.tsv"
	LangSummaryFile  = "agg_by_lang.tsv"
)

// FormatScore rounds to four decimals and prints the shortest form, keeping a
// trailing ".0" on integral values ("1.0", "0.5", "0.3333").
func FormatScore(v float64) string {
	rounded := math.Round(v*10000) / 10000
	if rounded == 0 {
		rounded = 0 // drop negative zero
	}
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// WriteRows writes the row table with a header. The header is written even
// when rows is empty.
func WriteRows(w io.Writer, rows []judge.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(judge.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.OutputPath,
			r.Model,
			r.Mode,
			r.Lang,
			strconv.Itoa(r.Tokens),
			strconv.Itoa(r.Shingles),
			FormatScore(r.MaxJaccard),
			r.BestJaccardMatch,
			FormatScore(r.MaxContainment),
			r.BestContainmentMatch,
			r.Genre,
			string(r.Label),
			r.Note,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", r.OutputPath, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteModelSummary writes per-model label counts.
func WriteModelSummary(w io.Writer, models []ModelCounts) error {
	if _, err := io.WriteString(w, "model\tcorrect\trefuse\thallucinate\terror\ttotal\n"); err != nil {
		return err
	}
	for _, m := range models {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n",
			m.Model, m.Correct, m.Refuse, m.Hallucinate, m.Error, m.Total); err != nil {
			return err
		}
	}
	return nil
}

// WriteGroupSummary writes a "<key>, count, avg_containment" table.
func WriteGroupSummary(w io.Writer, key string, groups []GroupStat) error {
	if _, err := fmt.Fprintf(w, "%s\tcount\tavg_containment\n", key); err != nil {
		return err
	}
	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%.4f\n", g.Key, g.Count, g.AvgContainment); err != nil {
			return err
		}
	}
	return nil
}

// WriteAll writes every table into dir and returns the written paths. Each
// file is replaced atomically.
func WriteAll(dir string, agg *Aggregator) ([]string, error) {
	rows := agg.Rows()
	models := agg.ModelSummary()
	genres := agg.GenreSummary()
	langs := agg.LangSummary()

	tables := []struct {
		name  string
		write func(io.Writer) error
	}{
		{RowsFile, func(w io.Writer) error { return WriteRows(w, rows) }},
		{ModelSummaryFile, func(w io.Writer) error { return WriteModelSummary(w, models) }},
		{GenreSummaryFile, func(w io.Writer) error { return WriteGroupSummary(w, "genre", genres) }},
		{LangSummaryFile, func(w io.Writer) error { return WriteGroupSummary(w, "lang", langs) }},
	}

	written := make([]string, 0, len(tables))
	for _, table := range tables {
		path := filepath.Join(dir, table.name)
		if err := fileutil.WriteAtomic(path, 0o644, table.write); err != nil {
			return written, fmt.Errorf("write %s: %w", table.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
