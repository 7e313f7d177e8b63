// Package judge turns model output files into judgment rows.
//
// Every output is normalized, tokenized and shingled like the reference
// corpus, matched against it, checked for refusal phrasing and labeled
// correct, refuse, hallucinate or error. Files are judged independently on a
// bounded worker pool; a failure on one file becomes an error row and never
// aborts the batch.
package judge
