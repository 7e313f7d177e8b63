package corpus

import "lyricjudge/internal/textutil"

// Match is the best Jaccard and best containment result for one query.
// Either document is nil when no reference shares a shingle with the query.
type Match struct {
	MaxJaccard     float64
	JaccardDoc     *Document
	MaxContainment float64
	ContainmentDoc *Document
}

// JaccardPath returns the best Jaccard document path or "".
func (m Match) JaccardPath() string {
	if m.JaccardDoc == nil {
		return ""
	}
	return m.JaccardDoc.Path
}

// ContainmentPath returns the best containment document path or "".
func (m Match) ContainmentPath() string {
	if m.ContainmentDoc == nil {
		return ""
	}
	return m.ContainmentDoc.Path
}

// BestMatch scans every document and keeps the first one reaching the highest
// Jaccard and the highest containment score. Documents without shingles are
// skipped. Containment is measured relative to the query.
func (c *Corpus) BestMatch(query textutil.ShingleSet) Match {
	var m Match
	if c == nil || len(query) == 0 {
		return m
	}
	for _, doc := range c.docs {
		if len(doc.Shingles) == 0 {
			continue
		}
		if j := textutil.Jaccard(query, doc.Shingles); j > m.MaxJaccard {
			m.MaxJaccard, m.JaccardDoc = j, doc
		}
		if ct := textutil.Containment(query, doc.Shingles); ct > m.MaxContainment {
			m.MaxContainment, m.ContainmentDoc = ct, doc
		}
	}
	return m
}

// JaccardGenre returns the genre of the best Jaccard document or "".
func (m Match) JaccardGenre() string {
	if m.JaccardDoc == nil {
		return ""
	}
	return m.JaccardDoc.Genre
}
