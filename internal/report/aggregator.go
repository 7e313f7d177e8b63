package report

import (
	"sort"
	"sync"

	"lyricjudge/internal/judge"
)

// ModelCounts is the label histogram of one model.
type ModelCounts struct {
	Model       string `json:"model"`
	Correct     int    `json:"correct"`
	Refuse      int    `json:"refuse"`
	Hallucinate int    `json:"hallucinate"`
	Error       int    `json:"error"`
	Total       int    `json:"total"`
}

// Count returns the number of rows carrying label.
func (m ModelCounts) Count(label judge.Label) int {
	switch label {
	case judge.LabelCorrect:
		return m.Correct
	case judge.LabelRefuse:
		return m.Refuse
	case judge.LabelHallucinate:
		return m.Hallucinate
	case judge.LabelError:
		return m.Error
	default:
		return 0
	}
}

func (m *ModelCounts) add(label judge.Label) {
	switch label {
	case judge.LabelCorrect:
		m.Correct++
	case judge.LabelRefuse:
		m.Refuse++
	case judge.LabelHallucinate:
		m.Hallucinate++
	case judge.LabelError:
		m.Error++
	}
	m.Total++
}

// GroupStat is the mean containment of rows sharing a genre or language.
type GroupStat struct {
	Key            string  `json:"key"`
	Count          int     `json:"count"`
	AvgContainment float64 `json:"avg_containment"`
}

// Totals summarizes a whole run.
type Totals struct {
	Rows           int         `json:"rows"`
	Labels         ModelCounts `json:"labels"`
	AvgContainment float64     `json:"avg_containment"`
	Flagged        int         `json:"flagged"`
}

// Aggregator accumulates rows. The zero value is not usable; call NewAggregator.
type Aggregator struct {
	mu      sync.Mutex
	rows    []judge.Row
	models  map[string]*ModelCounts
	genres  map[string][]float64
	langs   map[string][]float64
	flagged int
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		models: make(map[string]*ModelCounts),
		genres: make(map[string][]float64),
		langs:  make(map[string][]float64),
	}
}

// Add records one row. Error rows count toward their model only; rows with an
// unknown genre or language are left out of that grouping.
func (a *Aggregator) Add(row judge.Row) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.rows = append(a.rows, row)
	mc, ok := a.models[row.Model]
	if !ok {
		mc = &ModelCounts{Model: row.Model}
		a.models[row.Model] = mc
	}
	mc.add(row.Label)
	if row.Flagged {
		a.flagged++
	}
	if row.IsError() {
		return
	}
	if known(row.Genre) {
		a.genres[row.Genre] = append(a.genres[row.Genre], row.MaxContainment)
	}
	if known(row.Lang) {
		a.langs[row.Lang] = append(a.langs[row.Lang], row.MaxContainment)
	}
}

// AddAll records rows in order.
func (a *Aggregator) AddAll(rows []judge.Row) {
	for _, row := range rows {
		a.Add(row)
	}
}

// Rows returns the recorded rows sorted by output path.
func (a *Aggregator) Rows() []judge.Row {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := append([]judge.Row(nil), a.rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OutputPath < out[j].OutputPath
	})
	return out
}

// ModelSummary returns one entry per model, sorted by model.
func (a *Aggregator) ModelSummary() []ModelCounts {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]ModelCounts, 0, len(a.models))
	for _, mc := range a.models {
		out = append(out, *mc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// GenreSummary returns mean containment per genre, sorted by genre.
func (a *Aggregator) GenreSummary() []GroupStat {
	a.mu.Lock()
	defer a.mu.Unlock()
	return groupStats(a.genres)
}

// LangSummary returns mean containment per language, sorted by language code.
func (a *Aggregator) LangSummary() []GroupStat {
	a.mu.Lock()
	defer a.mu.Unlock()
	return groupStats(a.langs)
}

// Totals returns run-wide label counts, mean containment over every row and
// the number of flagged rows.
func (a *Aggregator) Totals() Totals {
	a.mu.Lock()
	defer a.mu.Unlock()

	t := Totals{Rows: len(a.rows), Flagged: a.flagged}
	t.Labels.Model = "all"
	values := make([]float64, 0, len(a.rows))
	for _, row := range a.rows {
		t.Labels.add(row.Label)
		values = append(values, row.MaxContainment)
	}
	t.AvgContainment = mean(values)
	return t
}

func groupStats(groups map[string][]float64) []GroupStat {
	out := make([]GroupStat, 0, len(groups))
	for key, values := range groups {
		out = append(out, GroupStat{Key: key, Count: len(values), AvgContainment: mean(values)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// mean sums a sorted copy so the result does not depend on insertion order.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}

func known(value string) bool {
	return value != "" && value != judge.Unknown
}
