// Package main hosts the lyricjudge CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, applies flag overrides
// and hands an immutable config to the judging engine. Results are written as
// delimited tables into the results directory and recorded in the SQLite run
// history, which the runs commands read back.
//
// Keep this package thin: scoring, matching and persistence live in the
// internal packages; commands only wire them together and render output.
package main
