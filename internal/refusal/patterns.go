package refusal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source tells where a PatternSet came from.
type Source string

const (
	SourceFile    Source = "file"
	SourceDefault Source = "default"
)

// PatternSet is an immutable, ordered list of compiled refusal patterns.
type PatternSet struct {
	patterns []*regexp.Regexp
}

// DroppedPattern records an entry that failed to compile.
type DroppedPattern struct {
	Pattern string
	Err     error
}

// Result is the outcome of Load.
type Result struct {
	Set     *PatternSet
	Source  Source
	Path    string
	Reason  string // why the defaults were used; empty for SourceFile
	Dropped []DroppedPattern
}

// document accepts both accepted shapes: a bare list or {"patterns": [...]}.
type document struct {
	Patterns []string
}

func (d *document) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Decode(&d.Patterns)
	case yaml.MappingNode:
		var obj struct {
			Patterns []string `yaml:"patterns"`
		}
		if err := node.Decode(&obj); err != nil {
			return err
		}
		d.Patterns = obj.Patterns
		return nil
	default:
		return fmt.Errorf("expected a list or an object with patterns, got %s", nodeKind(node.Kind))
	}
}

func (d *document) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		return json.Unmarshal(trimmed, &d.Patterns)
	case bytes.HasPrefix(trimmed, []byte("{")):
		var obj struct {
			Patterns []string `json:"patterns"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		d.Patterns = obj.Patterns
		return nil
	default:
		return errors.New("expected a list or an object with patterns")
	}
}

// decodeDocument reads JSON first and YAML only when the data is not JSON.
func decodeDocument(data []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = document{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return document{}, err
	}
	return doc, nil
}

func nodeKind(kind yaml.Kind) string {
	switch kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "unknown node"
	}
}

// Load resolves the refusal patterns for a run. It never fails: every problem
// with the pattern document degrades to the defaults, and every pattern that
// does not compile is dropped and listed in Result.Dropped.
func Load(path string) Result {
	path = strings.TrimSpace(path)
	raw, reason := readDocument(path)
	if len(raw) == 0 {
		set, _ := Compile(DefaultPatterns)
		return Result{Set: set, Source: SourceDefault, Path: path, Reason: reason}
	}
	set, dropped := Compile(raw)
	return Result{Set: set, Source: SourceFile, Path: path, Dropped: dropped}
}

func readDocument(path string) ([]string, string) {
	if path == "" {
		return nil, "no pattern file configured"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "pattern file not found"
		}
		return nil, fmt.Sprintf("read pattern file: %v", err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Sprintf("decode pattern file: %v", err)
	}
	patterns := make([]string, 0, len(doc.Patterns))
	for _, p := range doc.Patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		patterns = append(patterns, p)
	}
	if len(patterns) == 0 {
		return nil, "pattern file has no patterns"
	}
	return patterns, ""
}

// Compile builds a PatternSet with case-insensitive, dot-matches-newline
// semantics. Patterns that fail to compile are returned in dropped.
func Compile(patterns []string) (*PatternSet, []DroppedPattern) {
	set := &PatternSet{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	var dropped []DroppedPattern
	for _, p := range patterns {
		re, err := regexp.Compile("(?is)" + p)
		if err != nil {
			dropped = append(dropped, DroppedPattern{Pattern: p, Err: err})
			continue
		}
		set.patterns = append(set.patterns, re)
	}
	return set, dropped
}

// Len returns the number of compiled patterns.
func (s *PatternSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}

// Patterns returns the source of each compiled pattern, in order.
func (s *PatternSet) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.patterns))
	for _, re := range s.patterns {
		out = append(out, strings.TrimPrefix(re.String(), "(?is)"))
	}
	return out
}

// IsRefusal reports whether any pattern matches the trimmed text. Empty text
// is never a refusal.
func (s *PatternSet) IsRefusal(text string) bool {
	_, ok := s.Match(text)
	return ok
}

// Match returns the first pattern that matches the trimmed text. Runs of
// Unicode whitespace are collapsed to a single ASCII space first, since \s in
// RE2 only covers ASCII.
func (s *PatternSet) Match(text string) (string, bool) {
	if s == nil {
		return "", false
	}
	collapsed := strings.Join(strings.Fields(text), " ")
	if collapsed == "" {
		return "", false
	}
	for _, re := range s.patterns {
		if re.MatchString(collapsed) {
			return strings.TrimPrefix(re.String(), "(?is)"), true
		}
	}
	return "", false
}
