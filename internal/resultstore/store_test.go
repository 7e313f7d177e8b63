package resultstore_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lyricjudge/internal/judge"
	"lyricjudge/internal/resultstore"
)

func mustOpenStore(t testing.TB) *resultstore.Store {
	t.Helper()

	store, err := resultstore.Open(filepath.Join(t.TempDir(), "lyricjudge.db"))
	if err != nil {
		t.Fatalf("resultstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func sampleRun(started time.Time) resultstore.Run {
	return resultstore.Run{
		StartedAt:        started,
		FinishedAt:       started.Add(2 * time.Second),
		CorpusDir:        "/data/lyrics",
		OutputsDir:       "/data/outs",
		ShingleSize:      5,
		CorrectThreshold: 0.3,
		FlagThreshold:    0.4,
		Documents:        12,
		PatternSource:    "default",
	}
}

func sampleRows() []judge.Row {
	return []judge.Row{
		{OutputPath: "/data/outs/gpt/001.txt", Model: "gpt", Mode: "real", Lang: "en", Tokens: 40, Shingles: 36,
			MaxJaccard: 0.25, BestJaccardMatch: "/data/lyrics/rock/a.txt", MaxContainment: 0.9,
			BestContainmentMatch: "/data/lyrics/rock/a.txt", Genre: "rock", Label: judge.LabelCorrect, Flagged: true},
		{OutputPath: "/data/outs/gpt/002.txt", Model: "gpt", Mode: "?", Lang: "?", Genre: "?",
			Label: judge.LabelError, Note: "decode_error:invalid utf-8"},
	}
}

func TestSaveRunRoundTrip(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	started := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

	id, err := store.SaveRun(ctx, sampleRun(started), sampleRows())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated run id")
	}

	run, err := store.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	want := sampleRun(started)
	want.ID = id
	want.Rows = 2
	want.Flagged = 1
	if diff := cmp.Diff(want, run); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}

	rows, err := store.Rows(ctx, id)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if diff := cmp.Diff(sampleRows(), rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	older := sampleRun(base)
	older.ID = "run-older"
	newer := sampleRun(base.Add(500 * time.Millisecond))
	newer.ID = "run-newer"
	for _, r := range []resultstore.Run{older, newer} {
		if _, err := store.SaveRun(ctx, r, nil); err != nil {
			t.Fatalf("SaveRun %s: %v", r.ID, err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"run-newer", "run-older"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRunByPrefix(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	for _, id := range []string{"abc-111", "abc-222", "def-333"} {
		r := sampleRun(time.Now())
		r.ID = id
		if _, err := store.SaveRun(ctx, r, nil); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	run, err := store.GetRun(ctx, "def")
	if err != nil || run.ID != "def-333" {
		t.Fatalf("prefix lookup = %+v, %v", run, err)
	}
	if _, err := store.GetRun(ctx, "abc"); !errors.Is(err, resultstore.ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
	if _, err := store.GetRun(ctx, "zzz"); !errors.Is(err, resultstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetRun(ctx, "abc_"); !errors.Is(err, resultstore.ErrNotFound) {
		t.Fatalf("underscore must not act as a wildcard, got %v", err)
	}
}

func TestDeleteRunCascades(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	id, err := store.SaveRun(ctx, sampleRun(time.Now()), sampleRows())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := store.DeleteRun(ctx, id); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	rows, err := store.Rows(ctx, id)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows survived delete: %d", len(rows))
	}
	if err := store.DeleteRun(ctx, id); !errors.Is(err, resultstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateRunIDRollsBack(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	r := sampleRun(time.Now())
	r.ID = "fixed"
	if _, err := store.SaveRun(ctx, r, sampleRows()); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if _, err := store.SaveRun(ctx, r, sampleRows()[:1]); err == nil {
		t.Fatal("expected duplicate id error")
	}
	rows, err := store.Rows(ctx, "fixed")
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("failed save must not touch existing rows, got %d", len(rows))
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	store, err := resultstore.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := resultstore.Open(path); !errors.Is(err, resultstore.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestNewRunIDIsUnique(t *testing.T) {
	if resultstore.NewRunID() == resultstore.NewRunID() {
		t.Fatal("run ids must differ")
	}
}
