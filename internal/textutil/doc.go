// Package textutil turns raw lyric text into comparable shingle sets.
//
// The pipeline is fixed and deterministic:
//   - Normalize lowercases text, applies NFKD decomposition and strips
//     nonspacing marks so "Café" and "cafe" compare equal
//   - Tokenize splits normalized text into maximal alphanumeric runs
//   - MakeShingles slides an n-token window over the tokens
//
// Jaccard and Containment compare two ShingleSets. Containment is asymmetric:
// it measures how much of the query is explained by the candidate, which is
// the right measure for excerpts of a longer reference song.
package textutil
