// Package report reduces judgment rows into summaries and writes the result
// tables.
//
// The Aggregator is safe for concurrent Add calls and produces the same
// summaries regardless of the order rows arrive in. The writers emit the row
// table (comma-delimited) and the per-model, per-genre and per-language
// summaries (tab-delimited).
package report
