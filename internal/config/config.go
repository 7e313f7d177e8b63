package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input and output locations.
type Paths struct {
	CorpusDir       string `toml:"corpus_dir"`
	OutputsDir      string `toml:"outputs_dir"`
	ResultsDir      string `toml:"results_dir"`
	RefusalPatterns string `toml:"refusal_patterns"`
	PromptsFile     string `toml:"prompts_file"`
	StorePath       string `toml:"store_path"`
	LogDir          string `toml:"log_dir"`
}

// Judge contains the scoring knobs.
type Judge struct {
	// ShingleSize is the number of tokens per shingle (N). Default: 5
	ShingleSize int `toml:"shingle_size"`
	// CorrectThreshold is the containment at or above which a non-refusing
	// output is labeled correct. Default: 0.30
	CorrectThreshold float64 `toml:"correct_threshold"`
	// FlagThreshold drives the legacy memorization flag. It is independent of
	// CorrectThreshold even though both default to 0.30.
	FlagThreshold float64 `toml:"flag_threshold"`
	// Workers bounds the per-file worker pool; 0 means one per CPU.
	Workers int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lyricjudge.
//
// Configuration sections:
//   - Paths: corpus, outputs, results, pattern and prompt files, store
//   - Judge: shingle size, thresholds, worker count
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Judge   Judge   `toml:"judge"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the results directory and, when configured, the
// log directory and the directory holding the result store.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ResultsDir}
	if c.Paths.LogDir != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	dirs = append(dirs, filepath.Dir(c.StoreFile()))
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StoreFile returns the SQLite result store location.
func (c *Config) StoreFile() string {
	if strings.TrimSpace(c.Paths.StorePath) != "" {
		return c.Paths.StorePath
	}
	return filepath.Join(c.Paths.ResultsDir, defaultStoreName)
}

// WorkerCount resolves the worker pool size.
func (c *Config) WorkerCount() int {
	if c.Judge.Workers > 0 {
		return c.Judge.Workers
	}
	return runtime.NumCPU()
}

// RequireInputs reports a configuration error when the corpus or outputs
// directory is missing. Only the judge command needs them.
func (c *Config) RequireInputs() error {
	if c.Paths.CorpusDir == "" {
		return errors.New("paths.corpus_dir is required (set it in the config, pass --corpus, or export LYRICJUDGE_CORPUS_DIR)")
	}
	if c.Paths.OutputsDir == "" {
		return errors.New("paths.outputs_dir is required (set it in the config, pass --outputs, or export LYRICJUDGE_OUTPUTS_DIR)")
	}
	for _, dir := range []struct{ key, path string }{
		{"paths.corpus_dir", c.Paths.CorpusDir},
		{"paths.outputs_dir", c.Paths.OutputsDir},
	} {
		info, err := os.Stat(dir.path)
		if err != nil {
			return fmt.Errorf("%s: %w", dir.key, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s: %s is not a directory", dir.key, dir.path)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath resolves a leading "~" to the home directory and returns the cleaned absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
