package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"lyricjudge/internal/config"
	"lyricjudge/internal/corpus"
	"lyricjudge/internal/judge"
	"lyricjudge/internal/logging"
	"lyricjudge/internal/prompts"
	"lyricjudge/internal/refusal"
	"lyricjudge/internal/report"
	"lyricjudge/internal/resultstore"
	"lyricjudge/internal/runlock"
)

type judgeFlags struct {
	corpus           string
	outputs          string
	results          string
	refusals         string
	prompts          string
	shingleSize      int
	correctThreshold float64
	flagThreshold    float64
	workers          int
	noStore          bool
	json             bool
}

func newJudgeCommand(ctx *commandContext) *cobra.Command {
	var flags judgeFlags

	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Judge every model output against the reference corpus",
		Long: "Build the reference corpus, judge every .txt output below the outputs\n" +
			"directory and write metrics.csv, summary_by_model.tsv, agg_by_genre.tsv\n" +
			"and agg_by_lang.tsv into the results directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			if err := applyJudgeFlags(cmd, &cfg, flags); err != nil {
				return err
			}
			return runJudge(cmd, &cfg, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.corpus, "corpus", "", "Reference lyrics directory (paths.corpus_dir)")
	f.StringVar(&flags.outputs, "outputs", "", "Model outputs directory (paths.outputs_dir)")
	f.StringVar(&flags.results, "results", "", "Directory for result tables (paths.results_dir)")
	f.StringVar(&flags.refusals, "refusals", "", "Refusal pattern file (paths.refusal_patterns)")
	f.StringVar(&flags.prompts, "prompts", "", "prompts.json for mode mapping (paths.prompts_file)")
	f.IntVar(&flags.shingleSize, "n", 0, "Word shingle length (judge.shingle_size)")
	f.Float64Var(&flags.correctThreshold, "correct-threshold", 0, "Containment at or above which an output is correct")
	f.Float64Var(&flags.flagThreshold, "threshold", 0, "Containment at or above which an output is flagged as memorized")
	f.IntVar(&flags.workers, "workers", 0, "Parallel workers (0 = one per CPU)")
	f.BoolVar(&flags.noStore, "no-store", false, "Do not record the run in the result store")
	f.BoolVar(&flags.json, "json", false, "Print the run summary as JSON")
	return cmd
}

func applyJudgeFlags(cmd *cobra.Command, cfg *config.Config, flags judgeFlags) error {
	f := cmd.Flags()
	if f.Changed("corpus") {
		cfg.Paths.CorpusDir = flags.corpus
	}
	if f.Changed("outputs") {
		cfg.Paths.OutputsDir = flags.outputs
	}
	if f.Changed("results") {
		cfg.Paths.ResultsDir = flags.results
	}
	if f.Changed("refusals") {
		cfg.Paths.RefusalPatterns = flags.refusals
	}
	if f.Changed("prompts") {
		cfg.Paths.PromptsFile = flags.prompts
	}
	if f.Changed("n") {
		cfg.Judge.ShingleSize = flags.shingleSize
	}
	if f.Changed("correct-threshold") {
		cfg.Judge.CorrectThreshold = flags.correctThreshold
	}
	if f.Changed("threshold") {
		cfg.Judge.FlagThreshold = flags.flagThreshold
	}
	if f.Changed("workers") {
		cfg.Judge.Workers = flags.workers
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.RequireInputs()
}

func runJudge(cmd *cobra.Command, cfg *config.Config, flags judgeFlags) error {
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	runID := resultstore.NewRunID()
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	lock, err := runlock.Acquire(cfg.Paths.ResultsDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release results lock", logging.Error(err))
		}
	}()

	started := time.Now()
	patterns := loadPatterns(cfg.Paths.RefusalPatterns, logger)
	idx := loadPrompts(cfg.Paths.PromptsFile, logger)

	ref, err := corpus.Build(runCtx, cfg.Paths.CorpusDir, cfg.Judge.ShingleSize, logger)
	if err != nil {
		if errors.Is(err, corpus.ErrEmptyCorpus) {
			logger.Error("empty reference corpus",
				logging.String(logging.FieldEventType, "corpus_empty"),
				logging.String(logging.FieldErrorHint, "check paths.corpus_dir, mounts and file extensions"),
				logging.Error(err),
			)
		}
		return err
	}

	engine, err := judge.NewEngine(ref, patterns.Set, idx, judge.Settings{
		CorrectThreshold: cfg.Judge.CorrectThreshold,
		FlagThreshold:    cfg.Judge.FlagThreshold,
		Workers:          cfg.WorkerCount(),
	}, logger)
	if err != nil {
		return err
	}

	agg := report.NewAggregator()
	rows, err := engine.Run(runCtx, cfg.Paths.OutputsDir, agg)
	if err != nil {
		return err
	}

	written, err := report.WriteAll(cfg.Paths.ResultsDir, agg)
	if err != nil {
		return err
	}
	for _, path := range written {
		logger.Info("table written", logging.String("path", path))
	}

	summary := summarize(runID, agg)
	logRunSummary(logger, summary, ref.Skipped(), cfg.Judge.FlagThreshold)

	if !flags.noStore {
		if err := saveRun(runCtx, cfg, runID, started, ref, patterns, rows); err != nil {
			return err
		}
		logger.Info("run recorded", logging.String("store", cfg.StoreFile()))
	}

	out := cmd.OutOrStdout()
	if flags.json {
		return writeJSON(cmd, struct {
			runSummary
			Files []string `json:"files"`
		}{summary, written})
	}
	printSummary(out, summary, cfg.Judge.FlagThreshold)
	printWritten(out, written)
	return nil
}

func loadPatterns(path string, logger *slog.Logger) refusal.Result {
	res := refusal.Load(path)
	attrs := []logging.Attr{
		logging.Int("count", res.Set.Len()),
		logging.String("source", string(res.Source)),
		logging.Int("dropped", len(res.Dropped)),
	}
	if res.Path != "" {
		attrs = append(attrs, logging.String("path", res.Path))
	}
	if res.Reason != "" {
		attrs = append(attrs, logging.String("reason", res.Reason))
	}
	logger.Info("refusal patterns loaded", logging.Args(attrs...)...)

	if res.Source == refusal.SourceDefault && res.Path != "" {
		logging.WarnWithContext(logger, "refusal pattern file unusable, using built-in patterns", "refusal_patterns_fallback",
			logging.String("path", res.Path),
			logging.String("reason", res.Reason),
			logging.String(logging.FieldErrorHint, "fix or remove paths.refusal_patterns"),
			logging.String(logging.FieldImpact, "built-in refusal phrasings are used"),
		)
	}
	for _, d := range res.Dropped {
		logging.WarnWithContext(logger, "refusal pattern dropped", "refusal_pattern_invalid",
			logging.String("pattern", d.Pattern),
			logging.Error(d.Err),
			logging.String(logging.FieldImpact, "pattern ignored"),
		)
	}
	return res
}

func loadPrompts(path string, logger *slog.Logger) prompts.Index {
	if path == "" {
		logger.Debug("no prompts file configured; modes will be unknown")
		return prompts.Index{}
	}
	idx, err := prompts.Load(path)
	if err != nil {
		logging.WarnWithContext(logger, "prompts file unusable; modes will be unknown", "prompts_unavailable",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.prompts_file"),
			logging.String(logging.FieldImpact, "mode column reports ?"),
		)
		return prompts.Index{}
	}
	logger.Info("prompts loaded", logging.String("path", path), logging.Int("count", idx.Len()))
	return idx
}

func logRunSummary(logger *slog.Logger, summary runSummary, skippedCorpusFiles int, flagThreshold float64) {
	t := summary.Totals
	logger.Info("run summary",
		logging.Int("rows", t.Rows),
		logging.Int("corpus_skipped", skippedCorpusFiles),
		logging.Int(string(judge.LabelCorrect), t.Labels.Correct),
		logging.Int(string(judge.LabelRefuse), t.Labels.Refuse),
		logging.Int(string(judge.LabelHallucinate), t.Labels.Hallucinate),
		logging.Int(string(judge.LabelError), t.Labels.Error),
		logging.Float64("avg_containment", t.AvgContainment),
		logging.Float64("flag_threshold", flagThreshold),
		logging.Int("flagged", t.Flagged),
	)
}

func saveRun(ctx context.Context, cfg *config.Config, runID string, started time.Time, ref *corpus.Corpus, patterns refusal.Result, rows []judge.Row) error {
	store, err := resultstore.Open(cfg.StoreFile())
	if err != nil {
		return fmt.Errorf("open result store: %w", err)
	}
	defer store.Close()

	_, err = store.SaveRun(ctx, resultstore.Run{
		ID:               runID,
		StartedAt:        started,
		FinishedAt:       time.Now(),
		CorpusDir:        ref.Root(),
		OutputsDir:       cfg.Paths.OutputsDir,
		ShingleSize:      ref.ShingleSize(),
		CorrectThreshold: cfg.Judge.CorrectThreshold,
		FlagThreshold:    cfg.Judge.FlagThreshold,
		Documents:        ref.Len(),
		PatternSource:    string(patterns.Source),
	}, rows)
	return err
}

func printWritten(out io.Writer, paths []string) {
	for _, p := range paths {
		fmt.Fprintf(out, "wrote %s\n", p)
	}
}
