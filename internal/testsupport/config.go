package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lyricjudge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Corpus and outputs directories are created empty; results go to
// <base>/results. Options are applied last.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CorpusDir = filepath.Join(base, "corpus")
	cfgVal.Paths.OutputsDir = filepath.Join(base, "outs")
	cfgVal.Paths.ResultsDir = filepath.Join(base, "results")
	cfgVal.Judge.Workers = 2

	for _, dir := range []string{cfgVal.Paths.CorpusDir, cfgVal.Paths.OutputsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCorpus writes reference documents below the corpus directory.
func WithCorpus(files map[string]string) ConfigOption {
	return func(b *configBuilder) {
		WriteTree(b.t, b.cfg.Paths.CorpusDir, files)
	}
}

// WithOutputs writes generated outputs below the outputs directory.
func WithOutputs(files map[string]string) ConfigOption {
	return func(b *configBuilder) {
		WriteTree(b.t, b.cfg.Paths.OutputsDir, files)
	}
}

// WithRefusalPatterns writes a pattern document and points the config at it.
func WithRefusalPatterns(content string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "refusal_patterns.json")
		WriteFile(b.t, path, content)
		b.cfg.Paths.RefusalPatterns = path
	}
}

// WithPrompts writes a prompts.json and points the config at it.
func WithPrompts(content string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "prompts.json")
		WriteFile(b.t, path, content)
		b.cfg.Paths.PromptsFile = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ResultsDir)
}
