package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lyricjudge/internal/config"
	"lyricjudge/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("LYRICJUDGE_CORPUS_DIR", "")
	t.Setenv("LYRICJUDGE_OUTPUTS_DIR", "")

	configPath := filepath.Join(base, "lyricjudge.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
corpus_dir = %q
outputs_dir = %q
results_dir = %q
refusal_patterns = %q
prompts_file = %q

[judge]
shingle_size = %d
correct_threshold = %v
flag_threshold = %v
workers = %d

[logging]
level = "error"
`,
		cfg.Paths.CorpusDir,
		cfg.Paths.OutputsDir,
		cfg.Paths.ResultsDir,
		cfg.Paths.RefusalPatterns,
		cfg.Paths.PromptsFile,
		cfg.Judge.ShingleSize,
		cfg.Judge.CorrectThreshold,
		cfg.Judge.FlagThreshold,
		cfg.Judge.Workers,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
