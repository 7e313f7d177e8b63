package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lyricjudge/internal/corpus"
	"lyricjudge/internal/logging"
	"lyricjudge/internal/report"
	"lyricjudge/internal/resultstore"
	"lyricjudge/internal/runlock"
	"lyricjudge/internal/testsupport"
)

func judgeEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	return setupCLITestEnv(t,
		testsupport.WithCorpus(map[string]string{
			"rock/queen/we_will_rock_you.txt": "Buddy you're a boy make a big noise playing in the street gonna be a big man someday",
			"schlager/helene/atemlos":         "Atemlos durch die Nacht bis ein neuer Tag erwacht atemlos einfach raus",
		}),
		testsupport.WithOutputs(map[string]string{
			"model-a/001-real-rock.txt":    "buddy you're a boy make a big noise playing in the street",
			"model-a/002-real-atemlos.txt": "Sorry, I don't know this song.",
			"model-b/001-real-rock.txt":    "a completely different song about the sea and the sky",
			"model-b/002-real-atemlos.txt": "atemlos durch die nacht bis ein neuer tag erwacht",
		}),
		testsupport.WithPrompts(`[{"text":"rock","mode":"real"},{"text":"atemlos","mode":"switch_author"}]`),
	)
}

func TestJudgeWritesTablesAndStoresRun(t *testing.T) {
	env := judgeEnv(t)
	testsupport.WriteBytes(t, filepath.Join(env.cfg.Paths.OutputsDir, "model-b", "003-broken.txt"), []byte{0xc3, 0x28})

	out, _, err := runCLI(t, []string{"judge"}, env.configPath)
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	requireContains(t, out, "outputs=5")
	requireContains(t, out, report.RowsFile)
	requireContains(t, out, "German (de)")
	requireContains(t, out, "English (en)")

	summary := testsupport.ReadFile(t, filepath.Join(env.cfg.Paths.ResultsDir, report.ModelSummaryFile))
	want := "model\tcorrect\trefuse\thallucinate\terror\ttotal\n" +
		"model-a\t1\t1\t0\t0\t2\n" +
		"model-b\t1\t0\t1\t1\t3\n"
	if summary != want {
		t.Fatalf("summary_by_model.tsv:\n%s", summary)
	}

	metrics := testsupport.ReadFile(t, filepath.Join(env.cfg.Paths.ResultsDir, report.RowsFile))
	lines := strings.Split(strings.TrimSpace(metrics), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected header + 5 rows, got %d lines:\n%s", len(lines), metrics)
	}
	requireContains(t, lines[2], ",model-a,switch_author,")
	requireContains(t, lines[2], ",refuse,refused")
	requireContains(t, metrics, "decode_error:invalid utf-8")

	genres := testsupport.ReadFile(t, filepath.Join(env.cfg.Paths.ResultsDir, report.GenreSummaryFile))
	requireContains(t, genres, "rock\t")
	requireContains(t, genres, "schlager\t")

	listOut, _, err := runCLI(t, []string{"runs", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	var runs []struct {
		ID   string `json:"id"`
		Rows int    `json:"rows"`
	}
	if err := json.Unmarshal([]byte(listOut), &runs); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, listOut)
	}
	if len(runs) != 1 || runs[0].Rows != 5 {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	showOut, _, err := runCLI(t, []string{"runs", "show", runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, showOut, runs[0].ID)
	requireContains(t, showOut, "model-b")

	removeOut, _, err := runCLI(t, []string{"runs", "remove", runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("runs remove: %v", err)
	}
	requireContains(t, removeOut, "Removed run "+runs[0].ID)
	if _, _, err := runCLI(t, []string{"runs", "show", runs[0].ID}, env.configPath); !errors.Is(err, resultstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestJudgeIsIdempotent(t *testing.T) {
	env := judgeEnv(t)
	metricsPath := filepath.Join(env.cfg.Paths.ResultsDir, report.RowsFile)

	if _, _, err := runCLI(t, []string{"judge", "--no-store"}, env.configPath); err != nil {
		t.Fatalf("first judge: %v", err)
	}
	first := testsupport.ReadFile(t, metricsPath)
	if _, _, err := runCLI(t, []string{"judge", "--no-store", "--workers", "1"}, env.configPath); err != nil {
		t.Fatalf("second judge: %v", err)
	}
	if second := testsupport.ReadFile(t, metricsPath); second != first {
		t.Fatalf("row tables differ:\n%s\n---\n%s", first, second)
	}
	if _, err := os.Stat(env.cfg.StoreFile()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("--no-store must not create the store, stat err = %v", err)
	}
}

func TestJudgeJSONAndFlagOverrides(t *testing.T) {
	env := judgeEnv(t)
	results := filepath.Join(env.baseDir, "other-results")

	out, _, err := runCLI(t, []string{
		"judge", "--json", "--no-store",
		"--results", results,
		"--correct-threshold", "1.0",
		"--threshold", "0.5",
	}, env.configPath)
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	var payload struct {
		RunID  string `json:"run_id"`
		Totals struct {
			Rows    int `json:"rows"`
			Flagged int `json:"flagged"`
			Labels  struct {
				Correct int `json:"correct"`
			} `json:"labels"`
		} `json:"totals"`
		Files []string `json:"files"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if payload.RunID == "" || payload.Totals.Rows != 4 || len(payload.Files) != 4 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	// Excerpts shorter than the whole song still reach full containment.
	if payload.Totals.Labels.Correct != 2 || payload.Totals.Flagged != 2 {
		t.Fatalf("unexpected counts: %+v", payload.Totals)
	}
	if filepath.Dir(payload.Files[0]) != results {
		t.Fatalf("tables written to %s, want %s", filepath.Dir(payload.Files[0]), results)
	}
}

func TestJudgeEmptyCorpusFails(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithOutputs(map[string]string{"m/a.txt": "hello"}))

	_, _, err := runCLI(t, []string{"judge"}, env.configPath)
	if !errors.Is(err, corpus.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(env.cfg.Paths.ResultsDir, report.RowsFile)); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("no tables may be written for an empty corpus")
	}
}

func TestJudgeRequiresInputs(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"judge", "--corpus", filepath.Join(env.baseDir, "missing")}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "paths.corpus_dir") {
		t.Fatalf("expected corpus_dir error, got %v", err)
	}
}

func TestJudgeRejectsInvalidThreshold(t *testing.T) {
	env := judgeEnv(t)
	if _, _, err := runCLI(t, []string{"judge", "--correct-threshold", "1.5"}, env.configPath); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestJudgeRefusesLockedResults(t *testing.T) {
	env := judgeEnv(t)
	lock, err := runlock.Acquire(env.cfg.Paths.ResultsDir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	if _, _, err := runCLI(t, []string{"judge"}, env.configPath); !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestLogRunSummaryIncludesSkippedCorpusFiles(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "summary.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	agg := report.NewAggregator()
	logRunSummary(logger, summarize("run-1", agg), 2, 0.5)

	content := testsupport.ReadFile(t, logPath)
	for _, want := range []string{"run summary", "corpus_skipped=2", "flag_threshold=0.5"} {
		requireContains(t, content, want)
	}
}
