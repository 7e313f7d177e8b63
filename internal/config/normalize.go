package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

// Normalize re-applies path expansion after callers override fields (CLI flags).
func (c *Config) Normalize() error {
	return c.normalize()
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.CorpusDir) == "" {
		c.Paths.CorpusDir = strings.TrimSpace(os.Getenv("LYRICJUDGE_CORPUS_DIR"))
	}
	if strings.TrimSpace(c.Paths.OutputsDir) == "" {
		c.Paths.OutputsDir = strings.TrimSpace(os.Getenv("LYRICJUDGE_OUTPUTS_DIR"))
	}
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		c.Paths.ResultsDir = defaultResultsDir
	}

	fields := []struct {
		key   string
		value *string
	}{
		{"paths.corpus_dir", &c.Paths.CorpusDir},
		{"paths.outputs_dir", &c.Paths.OutputsDir},
		{"paths.results_dir", &c.Paths.ResultsDir},
		{"paths.refusal_patterns", &c.Paths.RefusalPatterns},
		{"paths.prompts_file", &c.Paths.PromptsFile},
		{"paths.store_path", &c.Paths.StorePath},
		{"paths.log_dir", &c.Paths.LogDir},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
