// Package config loads, normalizes, and validates lyricjudge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LYRICJUDGE_CORPUS_DIR. The Config value is built once at process start and
// passed by reference to every component; nothing in the engine reads
// settings lazily.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, bounded thresholds, and clear validation errors.
package config
