package judge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"lyricjudge/internal/corpus"
	"lyricjudge/internal/logging"
	"lyricjudge/internal/prompts"
	"lyricjudge/internal/refusal"
	"lyricjudge/internal/testsupport"
)

type collectSink struct {
	mu   sync.Mutex
	rows []Row
}

func (s *collectSink) Add(r Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, r)
}

func newEngine(t *testing.T, corpusFiles map[string]string, n int, idx prompts.Index) *Engine {
	t.Helper()
	root := t.TempDir()
	testsupport.WriteTree(t, root, corpusFiles)
	c, err := corpus.Build(context.Background(), root, n, logging.NewNop())
	if err != nil {
		t.Fatalf("corpus.Build: %v", err)
	}
	set, dropped := refusal.Compile(refusal.DefaultPatterns)
	if len(dropped) != 0 {
		t.Fatalf("default patterns dropped: %v", dropped)
	}
	e, err := NewEngine(c, set, idx, Settings{CorrectThreshold: 0.3, FlagThreshold: 0.3, Workers: 4}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestJudgeFileScenarioA(t *testing.T) {
	e := newEngine(t, map[string]string{"rock/band/song.txt": "a b c d e f"}, 5, prompts.Index{})
	outs := t.TempDir()
	path := filepath.Join(outs, "model-x", "001-real-song.txt")
	testsupport.WriteFile(t, path, "A, b. C! d e")

	row := e.JudgeFile(outs, path)
	if row.MaxContainment != 1.0 || row.MaxJaccard != 0.5 {
		t.Fatalf("unexpected scores: %+v", row)
	}
	if row.Label != LabelCorrect || !row.Flagged {
		t.Fatalf("expected correct and flagged, got %+v", row)
	}
	if row.Model != "model-x" || row.Genre != "rock" || row.Mode != Unknown {
		t.Fatalf("unexpected metadata: %+v", row)
	}
	if row.Tokens != 5 || row.Shingles != 1 || row.Note != "" {
		t.Fatalf("unexpected counts: %+v", row)
	}
	if filepath.Base(row.BestContainmentMatch) != "song.txt" {
		t.Fatalf("unexpected match path %q", row.BestContainmentMatch)
	}
}

func TestJudgeFileScenarioBRefusalWins(t *testing.T) {
	lyrics := "we will we will rock you buddy you are a boy make a big noise playing in the street"
	e := newEngine(t, map[string]string{"rock/queen/we_will.txt": lyrics}, 3, prompts.Index{})
	outs := t.TempDir()
	path := filepath.Join(outs, "m", "out.txt")
	testsupport.WriteFile(t, path, "I don't know this song, but: "+lyrics)

	row := e.JudgeFile(outs, path)
	if row.Label != LabelRefuse || row.Note != "refused" {
		t.Fatalf("expected refuse, got %+v", row)
	}
	if row.MaxContainment < 0.5 {
		t.Fatalf("overlap should still be measured, got %v", row.MaxContainment)
	}
}

func TestJudgeFileScenarioCDecodeError(t *testing.T) {
	e := newEngine(t, map[string]string{"doc.txt": "a b c d e f"}, 5, prompts.Index{})
	outs := t.TempDir()
	path := filepath.Join(outs, "m", "bad.txt")
	testsupport.WriteBytes(t, path, []byte("a b c d e \xff\xfe"))

	row := e.JudgeFile(outs, path)
	want := Row{
		OutputPath: path,
		Model:      "m",
		Mode:       Unknown,
		Lang:       Unknown,
		Genre:      Unknown,
		Label:      LabelError,
		Note:       "decode_error:invalid utf-8",
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestJudgeFileReadError(t *testing.T) {
	e := newEngine(t, map[string]string{"doc.txt": "a b c d e f"}, 5, prompts.Index{})
	outs := t.TempDir()
	row := e.JudgeFile(outs, filepath.Join(outs, "gone.txt"))
	if row.Label != LabelError || row.Model != UnknownModel {
		t.Fatalf("expected error row, got %+v", row)
	}
	if len(row.Note) < len("read_error:") || row.Note[:len("read_error:")] != "read_error:" {
		t.Fatalf("unexpected note %q", row.Note)
	}
}

func TestJudgeFileHallucinationAndLanguage(t *testing.T) {
	e := newEngine(t, map[string]string{"schlager/x/lied.txt": "ich bin so frei wie der wind"}, 2, prompts.Index{})
	outs := t.TempDir()
	path := filepath.Join(outs, "m", "out.txt")
	testsupport.WriteFile(t, path, "Der Mond ist aufgegangen und die Sterne sind nicht da")

	row := e.JudgeFile(outs, path)
	if row.Label != LabelHallucinate || row.Flagged {
		t.Fatalf("expected unflagged hallucination, got %+v", row)
	}
	if row.Lang != "de" {
		t.Fatalf("expected de, got %q", row.Lang)
	}
	if row.Genre != Unknown || row.BestJaccardMatch != "" {
		t.Fatalf("no match should leave genre unknown: %+v", row)
	}
}

func TestJudgeFileMode(t *testing.T) {
	idx, err := prompts.Parse([]byte(`[{"text":"a","mode":"real"},{"text":"b","mode":"madeup_all"}]`))
	if err != nil {
		t.Fatal(err)
	}
	e := newEngine(t, map[string]string{"doc.txt": "a b c d e f"}, 5, idx)
	outs := t.TempDir()
	path := filepath.Join(outs, "m", "002-madeup_all-b.txt")
	testsupport.WriteFile(t, path, "nothing here")
	if got := e.JudgeFile(outs, path).Mode; got != "madeup_all" {
		t.Fatalf("mode = %q", got)
	}
}

func TestRunOrdersRowsAndFeedsSink(t *testing.T) {
	e := newEngine(t, map[string]string{"rock/a/song.txt": "one two three four five six seven"}, 3, prompts.Index{})
	outs := t.TempDir()
	testsupport.WriteTree(t, outs, map[string]string{
		"m2/b.txt":     "one two three four",
		"m1/c.txt":     "sorry, I don't know the song",
		"m1/a.txt":     "completely unrelated words here",
		"loose.txt":    "five six seven",
		"m1/skip.md":   "not an output",
		"m1/upper.TXT": "not an output either",
	})
	testsupport.WriteBytes(t, filepath.Join(outs, "m2", "z.txt"), []byte{0xff})

	sink := &collectSink{}
	rows, err := e.Run(context.Background(), outs, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var got []string
	for _, r := range rows {
		rel, _ := filepath.Rel(outs, r.OutputPath)
		got = append(got, filepath.ToSlash(rel)+"="+string(r.Label))
	}
	want := []string{
		"loose.txt=correct",
		"m1/a.txt=hallucinate",
		"m1/c.txt=refuse",
		"m2/b.txt=correct",
		"m2/z.txt=error",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if len(sink.rows) != len(rows) {
		t.Fatalf("sink saw %d rows, want %d", len(sink.rows), len(rows))
	}
	if rows[0].Model != UnknownModel {
		t.Fatalf("loose output model = %q", rows[0].Model)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	e := newEngine(t, map[string]string{"pop/x/s.txt": "la la la love you so much baby"}, 2, prompts.Index{})
	outs := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 3*runtime.NumCPU()+5; i++ {
		files[filepath.ToSlash(filepath.Join("m", string(rune('a'+i%26))+string(rune('a'+i/26))+".txt"))] = "love you so much"
	}
	testsupport.WriteTree(t, outs, files)

	first, err := e.Run(context.Background(), outs, nil)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := e.Run(context.Background(), outs, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("runs differ (-first +second):\n%s", diff)
	}
}

func TestRunCanceled(t *testing.T) {
	e := newEngine(t, map[string]string{"doc.txt": "a b c d e f"}, 5, prompts.Index{})
	outs := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(outs, "m", "a.txt"), "a b c")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Run(ctx, outs, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunMissingRoot(t *testing.T) {
	e := newEngine(t, map[string]string{"doc.txt": "a b c d e f"}, 5, prompts.Index{})
	if _, err := e.Run(context.Background(), filepath.Join(t.TempDir(), "nope"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestModelFromPath(t *testing.T) {
	root := filepath.FromSlash("/outs")
	tests := map[string]string{
		"/outs/gpt/x.txt":      "gpt",
		"/outs/gpt/sub/x.txt":  "gpt",
		"/outs/x.txt":          UnknownModel,
		"/elsewhere/gpt/x.txt": UnknownModel,
	}
	for path, want := range tests {
		if got := ModelFromPath(root, filepath.FromSlash(path)); got != want {
			t.Errorf("ModelFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestNewEngineRequiresInputs(t *testing.T) {
	set, _ := refusal.Compile(nil)
	if _, err := NewEngine(nil, set, prompts.Index{}, Settings{}, nil); err == nil {
		t.Fatal("expected error without corpus")
	}
}
