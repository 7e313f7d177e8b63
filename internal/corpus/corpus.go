package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"lyricjudge/internal/language"
	"lyricjudge/internal/logging"
	"lyricjudge/internal/textutil"
)

// ErrEmptyCorpus is returned when a corpus root yields no documents.
var ErrEmptyCorpus = errors.New("corpus has no documents")

// corpusExtensions lists accepted reference file suffixes besides "no suffix".
var corpusExtensions = map[string]struct{}{
	".txt":  {},
	".text": {},
}

// Document is one indexed reference file.
type Document struct {
	Path     string // absolute path
	RelPath  string // slash separated, relative to the corpus root
	Tokens   []string
	Shingles textutil.ShingleSet
	Genre    string // empty when the file sits directly below the root
	Lang     string // empty when undetected
}

// Corpus is an ordered, read-only collection of documents shingled with the same size.
type Corpus struct {
	root        string
	shingleSize int
	docs        []*Document
	skipped     int
}

// Root returns the directory the corpus was built from.
func (c *Corpus) Root() string { return c.root }

// ShingleSize returns N.
func (c *Corpus) ShingleSize() int { return c.shingleSize }

// Len returns the number of documents.
func (c *Corpus) Len() int { return len(c.docs) }

// Skipped returns the number of candidate files that could not be read.
func (c *Corpus) Skipped() int { return c.skipped }

// Documents returns the documents in scan order. Callers must not modify them.
func (c *Corpus) Documents() []*Document { return c.docs }

// Build indexes every accepted file below root with shingle size n.
func Build(ctx context.Context, root string, n int, logger *slog.Logger) (*Corpus, error) {
	logger = logging.NewComponentLogger(logger, "corpus")
	if n < 1 {
		return nil, fmt.Errorf("build corpus: shingle size must be at least 1, got %d", n)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("build corpus: resolve root: %w", err)
	}

	paths, err := listFiles(absRoot)
	if err != nil {
		return nil, fmt.Errorf("build corpus: %w", err)
	}

	c := &Corpus{root: absRoot, shingleSize: n, docs: make([]*Document, 0, len(paths))}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := readTolerant(path)
		if err != nil {
			c.skipped++
			logger.Debug("skipping unreadable corpus file", logging.String("path", path), logging.Error(err))
			continue
		}
		c.docs = append(c.docs, newDocument(absRoot, path, text, n))
	}

	if len(c.docs) == 0 {
		return nil, fmt.Errorf("%w: no reference files under %s (check the path, mounts, or file extensions; found: %s)",
			ErrEmptyCorpus, absRoot, sampleEntries(absRoot, 10))
	}

	logger.Info("corpus built",
		logging.String("root", absRoot),
		logging.Int("documents", len(c.docs)),
		logging.Int("skipped", c.skipped),
		logging.Int("shingle_size", n),
	)
	return c, nil
}

func newDocument(root, path, text string, n int) *Document {
	tokens := textutil.NormalizeAndTokenize(text)
	rel := relSlash(root, path)
	return &Document{
		Path:     path,
		RelPath:  rel,
		Tokens:   tokens,
		Shingles: textutil.NewShingleSet(textutil.MakeShingles(tokens, n)),
		Genre:    DeriveGenre(root, path),
		Lang:     language.Detect(tokens),
	}
}

// DeriveGenre returns the first path segment of path below root. It requires
// at least two segments (genre/song or genre/artist/song); shallower paths
// and paths outside root have no genre and yield "".
func DeriveGenre(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") || rel == ".." {
		return ""
	}
	parts := strings.Split(rel, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

// IsCorpusFile reports whether a file name qualifies as a reference document.
func IsCorpusFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return true
	}
	_, ok := corpusExtensions[ext]
	return ok
}

func listFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped like unreadable files.
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		// Only the file's own name decides; hidden directories are walked.
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() || !IsCorpusFile(d.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(paths, func(i, j int) bool {
		return relSlash(root, paths[i]) < relSlash(root, paths[j])
	})
	return paths, nil
}

// readTolerant decodes a file as UTF-8 (or UTF-16 when a BOM says so),
// replacing invalid sequences with U+FFFD instead of failing.
func readTolerant(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}
	return string(decoded), nil
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func sampleEntries(root string, limit int) string {
	var sample []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == root {
			return nil
		}
		sample = append(sample, relSlash(root, path))
		if len(sample) >= limit {
			return fs.SkipAll
		}
		return nil
	})
	if len(sample) == 0 {
		return "nothing"
	}
	return strings.Join(sample, ", ")
}
