package textutil

// ShingleSet is a deduplicated set of shingles.
type ShingleSet map[Shingle]struct{}

// NewShingleSet collects shingles into a set.
func NewShingleSet(shingles []Shingle) ShingleSet {
	set := make(ShingleSet, len(shingles))
	for _, sh := range shingles {
		set[sh] = struct{}{}
	}
	return set
}

// Len returns the number of distinct shingles.
func (s ShingleSet) Len() int {
	return len(s)
}

// Contains reports whether sh is in the set.
func (s ShingleSet) Contains(sh Shingle) bool {
	_, ok := s[sh]
	return ok
}

// IntersectionSize counts shingles present in both sets.
func IntersectionSize(a, b ShingleSet) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	var n int
	for sh := range a {
		if b.Contains(sh) {
			n++
		}
	}
	return n
}

// Jaccard returns |A∩B| / |A∪B|. It is 0 when both sets are empty or when
// they share nothing.
func Jaccard(a, b ShingleSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := IntersectionSize(a, b)
	if inter == 0 {
		return 0
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Containment returns |A∩B| / |A| where a is the query. It is 0 for an empty query.
func Containment(a, b ShingleSet) float64 {
	if len(a) == 0 {
		return 0
	}
	return float64(IntersectionSize(a, b)) / float64(len(a))
}
