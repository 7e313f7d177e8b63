package judge

// Label is the verdict for one output file.
type Label string

const (
	LabelCorrect     Label = "correct"
	LabelRefuse      Label = "refuse"
	LabelHallucinate Label = "hallucinate"
	LabelError       Label = "error"
)

// Labels lists every label in summary column order.
var Labels = []Label{LabelCorrect, LabelRefuse, LabelHallucinate, LabelError}

// Decide combines the best containment score and the refusal flag into a
// label. A refusal wins over any score. LabelError is never returned here; it
// is assigned when the file itself could not be processed.
func Decide(maxContainment float64, refused bool, correctThreshold float64) Label {
	if refused {
		return LabelRefuse
	}
	if maxContainment >= correctThreshold {
		return LabelCorrect
	}
	return LabelHallucinate
}

// Flag reports the legacy memorization flag. It uses its own threshold and
// ignores refusals.
func Flag(maxContainment, flagThreshold float64) bool {
	return maxContainment >= flagThreshold
}
