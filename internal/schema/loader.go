package schema

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultCacheSize bounds the number of parsed fragments kept in memory.
// Fragment content is immutable within a run, so cached entries are shared
// read-only across entry points and across concurrent unit builds.
const defaultCacheSize = 256

// Loader reads and parses fragment files, caching the result per canonical
// path so shared fragments are read once per run.
type Loader struct {
	cache *lru.Cache[string, *Fragment]
}

// NewLoader returns a Loader with the default cache size.
func NewLoader() *Loader {
	cache, err := lru.New[string, *Fragment](defaultCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Loader{cache: cache}
}

// Load returns the parsed fragment for the given canonical path.
func (l *Loader) Load(path string) (*Fragment, error) {
	if frag, ok := l.cache.Get(path); ok {
		return frag, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fragment %s: %w", path, err)
	}

	frag := parseFragment(path, string(content))
	l.cache.Add(path, frag)
	return frag, nil
}

// Canonical normalizes a path into the single absolute, cleaned form used
// as the fragment's identity. Two spellings of the same file must map to
// the same key or cycle detection and duplicate suppression silently break.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}
