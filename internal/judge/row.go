package judge

// Unknown is written for a language, genre or mode that could not be determined.
const Unknown = "?"

// UnknownModel is used for outputs sitting directly below the outputs root.
const UnknownModel = "unknown-model"

// Row is the judgment for one output file.
type Row struct {
	OutputPath           string  `json:"output_path"`
	Model                string  `json:"model"`
	Mode                 string  `json:"mode"`
	Lang                 string  `json:"lang"`
	Tokens               int     `json:"tokens"`
	Shingles             int     `json:"shingles"`
	MaxJaccard           float64 `json:"max_jaccard"`
	BestJaccardMatch     string  `json:"best_jaccard_match"`
	MaxContainment       float64 `json:"max_containment"`
	BestContainmentMatch string  `json:"best_containment_match"`
	Genre                string  `json:"genre"`
	Label                Label   `json:"label"`
	Note                 string  `json:"note"`
	// Flagged is the legacy memorization flag. It is stored with the run but
	// is not a column of the row table.
	Flagged bool `json:"flagged"`
}

// Columns is the header of the row table, in order.
var Columns = []string{
	"output_path",
	"model",
	"mode",
	"lang",
	"tokens",
	"shingles",
	"max_jaccard",
	"best_jaccard_match",
	"max_containment",
	"best_containment_match",
	"genre",
	"label",
	"note",
}

// IsError reports whether the row records a processing failure.
func (r Row) IsError() bool {
	return r.Label == LabelError
}

// errorRow builds the row for a file that could not be read or decoded. Scores
// and counts stay zero and the language and genre are unknown.
func errorRow(path, model, mode, note string) Row {
	return Row{
		OutputPath: path,
		Model:      model,
		Mode:       mode,
		Lang:       Unknown,
		Genre:      Unknown,
		Label:      LabelError,
		Note:       note,
	}
}
