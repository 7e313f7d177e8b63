package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateJudge(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateJudge() error {
	if c.Judge.ShingleSize < 1 {
		return errors.New("judge.shingle_size must be at least 1")
	}
	if c.Judge.CorrectThreshold < 0 || c.Judge.CorrectThreshold > 1 {
		return errors.New("judge.correct_threshold must be between 0 and 1")
	}
	if c.Judge.FlagThreshold < 0 || c.Judge.FlagThreshold > 1 {
		return errors.New("judge.flag_threshold must be between 0 and 1")
	}
	if c.Judge.Workers < 0 {
		return errors.New("judge.workers must be zero (auto) or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
