package localcorpus

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parchmentlabs/folio/pkg/types"
)

// IdentifierPrefix marks documents that came from the local corpus.
const IdentifierPrefix = "local_"

// Scanner walks a books directory and extracts text from its files.
type Scanner struct {
	dir    string
	logger *slog.Logger

	// epubExtract is swappable so the archive package's extractor can be
	// injected without a dependency cycle.
	epubExtract func(data []byte) (string, error)
}

// NewScanner creates a scanner rooted at dir. extractEPUB may be nil, in
// which case EPUB files are skipped.
func NewScanner(dir string, extractEPUB func([]byte) (string, error), logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{dir: dir, logger: logger, epubExtract: extractEPUB}
}

// Find lists local documents whose title or file name relates to the query.
// An empty query lists everything. A missing directory is an empty corpus,
// not an error.
func (s *Scanner) Find(ctx context.Context, query string, limit int) ([]types.Document, error) {
	all, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	terms := queryTerms(query)
	var docs []types.Document
	for _, doc := range all {
		if len(terms) > 0 && !matchesAny(doc, terms) {
			continue
		}
		docs = append(docs, doc)
		if limit > 0 && len(docs) >= limit {
			break
		}
	}
	return docs, nil
}

// FetchText reads and extracts the document's text. The document must have
// come from this scanner's Find.
func (s *Scanner) FetchText(ctx context.Context, doc types.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.pathFor(doc.Identifier)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("localcorpus: read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return strings.ToValidUTF8(string(data), ""), nil
	case ".epub":
		if s.epubExtract == nil {
			return "", nil
		}
		return s.epubExtract(data)
	default:
		return "", nil
	}
}

// scan walks the directory and derives document metadata from file names.
func (s *Scanner) scan(ctx context.Context) ([]types.Document, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.logger.Debug("local corpus directory missing", "dir", s.dir)
		return nil, nil
	}

	var docs []types.Document
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".epub" {
			return nil
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		docs = append(docs, types.Document{
			Identifier:  IdentifierPrefix + stem,
			Title:       titleFromStem(stem),
			Creator:     "Local Collection",
			Description: "Local book: " + filepath.Base(path),
			Source:      types.SourceLocal,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("localcorpus: scan %s: %w", s.dir, err)
	}
	return docs, nil
}

// pathFor resolves an identifier back to the file it was derived from.
func (s *Scanner) pathFor(identifier string) (string, error) {
	stem, ok := strings.CutPrefix(identifier, IdentifierPrefix)
	if !ok {
		return "", fmt.Errorf("localcorpus: not a local identifier: %s", identifier)
	}

	var found string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || found != "" {
			return nil
		}
		if strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) == stem {
			found = path
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("localcorpus: resolve %s: %w", identifier, err)
	}
	if found == "" {
		return "", fmt.Errorf("localcorpus: no file for identifier %s", identifier)
	}
	return found, nil
}

// titleFromStem turns "napoleon_memoirs-vol1" into "Napoleon Memoirs Vol1".
func titleFromStem(stem string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func queryTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, `"()?,.!`)
		if len(f) > 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

// matchesAny reports whether any query term appears in the document's
// identifier, title or description.
func matchesAny(doc types.Document, terms []string) bool {
	haystack := strings.ToLower(doc.Identifier + " " + doc.Title + " " + doc.Description)
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
