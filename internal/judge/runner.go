package judge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"lyricjudge/internal/corpus"
	"lyricjudge/internal/language"
	"lyricjudge/internal/logging"
	"lyricjudge/internal/prompts"
	"lyricjudge/internal/refusal"
	"lyricjudge/internal/textutil"
)

// outputExt is the only suffix accepted for generated outputs. Matching is
// case-sensitive.
const outputExt = ".txt"

// Settings are the scoring knobs of an Engine.
type Settings struct {
	CorrectThreshold float64
	FlagThreshold    float64
	Workers          int
}

// RowSink receives rows as they are produced. Add is called from worker
// goroutines and must be safe for concurrent use.
type RowSink interface {
	Add(Row)
}

// Engine judges output files against a frozen corpus and pattern set.
type Engine struct {
	corpus   *corpus.Corpus
	patterns *refusal.PatternSet
	prompts  prompts.Index
	settings Settings
	logger   *slog.Logger
}

// NewEngine wires an engine. The corpus and pattern set are shared read-only
// by every worker.
func NewEngine(c *corpus.Corpus, patterns *refusal.PatternSet, idx prompts.Index, settings Settings, logger *slog.Logger) (*Engine, error) {
	if c == nil {
		return nil, errors.New("judge engine requires a corpus")
	}
	if patterns == nil {
		return nil, errors.New("judge engine requires a refusal pattern set")
	}
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	return &Engine{
		corpus:   c,
		patterns: patterns,
		prompts:  idx,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "judge"),
	}, nil
}

// Settings returns the engine configuration.
func (e *Engine) Settings() Settings { return e.settings }

// Run judges every output below root and returns the rows in path order.
// Rows are also handed to sink, when non-nil, as soon as they are ready.
// Per-file failures become error rows; only a listing failure or context
// cancellation returns an error.
func (e *Engine) Run(ctx context.Context, root string, sink RowSink) ([]Row, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve outputs root: %w", err)
	}
	paths, err := ListOutputs(absRoot)
	if err != nil {
		return nil, err
	}

	e.logger.Info("judging outputs",
		logging.String("root", absRoot),
		logging.Int("files", len(paths)),
		logging.Int("workers", e.settings.Workers),
	)

	start := time.Now()
	rows := make([]Row, len(paths))
	sampler := logging.NewProgressSampler(10)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.settings.Workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := e.JudgeFile(absRoot, path)
			rows[i] = row
			if sink != nil {
				sink.Add(row)
			}
			n := done.Add(1)
			percent := float64(n) * 100 / float64(len(paths))
			if sampler.ShouldLog(percent, "judging") {
				e.logger.Info("judging progress",
					logging.Int("done", int(n)),
					logging.Int("total", len(paths)),
					logging.Float64("percent", percent),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("judge outputs: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("judge outputs: %w", err)
	}

	e.logger.Info("outputs judged",
		logging.Int("rows", len(rows)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return rows, nil
}

// JudgeFile produces the row for one output file below root.
func (e *Engine) JudgeFile(root, path string) Row {
	model := ModelFromPath(root, path)
	mode := e.prompts.ModeFor(filepath.Base(path))

	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Debug("output unreadable", logging.String("path", path), logging.Error(err))
		return errorRow(path, model, mode, "read_error:"+err.Error())
	}
	if !utf8.Valid(data) {
		e.logger.Debug("output is not valid utf-8", logging.String("path", path))
		return errorRow(path, model, mode, "decode_error:invalid utf-8")
	}
	text := string(data)

	tokens := textutil.NormalizeAndTokenize(text)
	shingles := textutil.MakeShingles(tokens, e.corpus.ShingleSize())
	match := e.corpus.BestMatch(textutil.NewShingleSet(shingles))
	refused := e.patterns.IsRefusal(text)

	row := Row{
		OutputPath:           path,
		Model:                model,
		Mode:                 mode,
		Lang:                 orUnknown(language.Detect(tokens)),
		Tokens:               len(tokens),
		Shingles:             len(shingles),
		MaxJaccard:           match.MaxJaccard,
		BestJaccardMatch:     match.JaccardPath(),
		MaxContainment:       match.MaxContainment,
		BestContainmentMatch: match.ContainmentPath(),
		Genre:                orUnknown(match.JaccardGenre()),
		Label:                Decide(match.MaxContainment, refused, e.settings.CorrectThreshold),
		Flagged:              Flag(match.MaxContainment, e.settings.FlagThreshold),
	}
	if refused {
		row.Note = "refused"
	}

	e.logger.Debug("output judged",
		logging.String("path", path),
		logging.String("label", string(row.Label)),
		logging.Float64("max_containment", row.MaxContainment),
	)
	return row
}

// ListOutputs returns every regular file ending in ".txt" below root, sorted.
func ListOutputs(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("list outputs: %s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), outputExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// ModelFromPath returns the first path segment below root, or UnknownModel
// when the file sits directly in root or outside of it.
func ModelFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return UnknownModel
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return UnknownModel
	}
	parts := strings.Split(rel, "/")
	if len(parts) < 2 {
		return UnknownModel
	}
	return parts[0]
}

func orUnknown(value string) string {
	if value == "" {
		return Unknown
	}
	return value
}
