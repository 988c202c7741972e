package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultExtensions lists the unit file suffixes handled by the tool.
var DefaultExtensions = []string{".ast.json"}

// Walker discovers syntax-tree unit files under a directory.
type Walker struct {
	extensions []string
	exclude    *regexp.Regexp
}

// NewWalker creates a Walker. An empty exclude pattern excludes nothing; no
// extensions means DefaultExtensions.
func NewWalker(exclude string, extensions ...string) (*Walker, error) {
	w := &Walker{extensions: DefaultExtensions}
	if len(extensions) > 0 {
		w.extensions = extensions
	}
	if exclude != "" {
		re, err := regexp.Compile(exclude)
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern: %w", err)
		}
		w.exclude = re
	}
	return w, nil
}

// FileEntry represents a discovered unit ready for processing.
type FileEntry struct {
	Path string
	// Unit is the slash-separated path relative to the walk root. It names the
	// unit in the registry.
	Unit string
}

// Excluded reports whether a unit path matches the exclude pattern.
func (w *Walker) Excluded(unit string) bool {
	return w.exclude != nil && w.exclude.MatchString(unit)
}

func (w *Walker) supported(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range w.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Walk discovers all unit files under root, sorted by unit name.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry
	skipped := 0

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		unit := filepath.ToSlash(rel)

		if d.IsDir() {
			if unit != "." && w.Excluded(unit+"/") {
				skipped++
				return filepath.SkipDir
			}
			return nil
		}

		if !w.supported(path) {
			return nil
		}
		if w.Excluded(unit) {
			skipped++
			return nil
		}

		entries = append(entries, FileEntry{Path: path, Unit: unit})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Unit < entries[j].Unit })

	log.Info().Int("count", len(entries)).Int("excluded", skipped).Str("root", root).Msg("Discovered units")
	return entries, nil
}
