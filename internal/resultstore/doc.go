// Package resultstore persists judgment runs and their rows in SQLite.
//
// Every judge invocation is recorded as one run with its settings and a copy
// of every row, so earlier results can be listed and compared after the
// table files have been overwritten.
package resultstore
