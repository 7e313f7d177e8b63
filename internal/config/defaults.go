package config

const (
	defaultConfigPath       = "~/.config/lyricjudge/config.toml"
	projectConfigName       = "lyricjudge.toml"
	defaultResultsDir       = "./out"
	defaultStoreName        = "lyricjudge.db"
	defaultShingleSize      = 5
	defaultCorrectThreshold = 0.30
	defaultFlagThreshold    = 0.30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ResultsDir: defaultResultsDir,
		},
		Judge: Judge{
			ShingleSize:      defaultShingleSize,
			CorrectThreshold: defaultCorrectThreshold,
			FlagThreshold:    defaultFlagThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
