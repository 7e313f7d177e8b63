// Package refusal detects outputs in which a model declines to reproduce a
// song ("I don't know this song", "Ich kenne dieses Lied nicht").
//
// Patterns load in two explicit stages: the structured pattern document is
// decoded first, then every entry is compiled on its own. Entries that fail
// to compile are dropped and reported. When the document is absent, unreadable
// or yields no entries, the built-in DefaultPatterns are used instead. Load
// returns a Result that records which path was taken so callers can log it.
package refusal
