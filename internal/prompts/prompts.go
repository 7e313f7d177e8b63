package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// DefaultMode is assigned to prompts that do not declare one.
const DefaultMode = "real"

// UnknownMode is reported for files that cannot be mapped to a prompt.
const UnknownMode = "?"

var indexPrefix = regexp.MustCompile(`^(\d{3})-`)

// Prompt is one entry of prompts.json.
type Prompt struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

// Index holds prompts in file order. The zero value is an empty index that
// maps every file to UnknownMode.
type Index struct {
	prompts []Prompt
}

// Load reads prompts.json. Entries may be objects with a "text" field (and an
// optional "mode") or bare strings. Entries with empty text are dropped before
// numbering.
func Load(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Index{}, fmt.Errorf("read prompts: %w", err)
	}
	idx, err := Parse(data)
	if err != nil {
		return Index{}, fmt.Errorf("parse prompts %s: %w", path, err)
	}
	return idx, nil
}

// Parse decodes a prompts document.
func Parse(data []byte) (Index, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Index{}, errors.New("prompts document must be a JSON array")
	}

	out := make([]Prompt, 0, len(raw))
	for _, item := range raw {
		p, ok := decodeEntry(item)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	return Index{prompts: out}, nil
}

func decodeEntry(item json.RawMessage) (Prompt, bool) {
	var text string
	if err := json.Unmarshal(item, &text); err == nil {
		text = strings.TrimSpace(text)
		return Prompt{Text: text, Mode: DefaultMode}, text != ""
	}

	var obj map[string]any
	if err := json.Unmarshal(item, &obj); err != nil {
		return Prompt{}, false
	}
	rawText, ok := obj["text"]
	if !ok {
		return Prompt{}, false
	}
	p := Prompt{Text: strings.TrimSpace(stringify(rawText)), Mode: DefaultMode}
	if rawMode, ok := obj["mode"]; ok {
		if mode := strings.TrimSpace(stringify(rawMode)); mode != "" {
			p.Mode = mode
		}
	}
	return p, p.Text != ""
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// Len returns the number of prompts.
func (i Index) Len() int { return len(i.prompts) }

// Prompts returns a copy of the prompts in file order.
func (i Index) Prompts() []Prompt {
	return append([]Prompt(nil), i.prompts...)
}

// Mode returns the mode of the prompt at 1-based position n.
func (i Index) Mode(n int) (string, bool) {
	if n < 1 || n > len(i.prompts) {
		return "", false
	}
	return i.prompts[n-1].Mode, true
}

// ModeFor resolves the mode of an output file from its "NNN-" name prefix.
// Files without the prefix or with an out-of-range number map to UnknownMode.
func (i Index) ModeFor(fileName string) string {
	m := indexPrefix.FindStringSubmatch(fileName)
	if m == nil {
		return UnknownMode
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return UnknownMode
	}
	mode, ok := i.Mode(n)
	if !ok {
		return UnknownMode
	}
	return mode
}
