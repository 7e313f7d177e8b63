// Package corpus indexes a reference lyrics tree into immutable shingle sets
// and finds the best matching reference document for a query.
//
// Build walks the tree once, tolerating uneven formatting: files without an
// extension are accepted next to .txt/.text files, undecodable bytes are
// replaced and unreadable files are skipped. Documents are ordered by
// relative path so best-match tie breaking does not depend on the platform's
// directory enumeration order. A Corpus is read-only after Build returns and
// may be shared by any number of goroutines.
package corpus
