// Package language detects the language of lyric token streams and maps the
// supported language codes to display names.
//
// Detection is a stop-word rate heuristic over two fixed word lists (German
// and English). It is deliberately cheap: lyrics are short, repetitive and
// full of loan words, so anything more elaborate buys little.
package language
