package audio

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/jmylchreest/adhan/internal/prayer"
)

// CueStore holds one directory of cue files per category below a root.
type CueStore struct {
	fs   afero.Fs
	root string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCueStore creates a cue store rooted at root. A nil src seeds the
// random selection from the runtime; pass a fixed source for
// reproducible picks.
func NewCueStore(fs afero.Fs, root string, src rand.Source) *CueStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &CueStore{
		fs:   fs,
		root: root,
		rng:  rand.New(src),
	}
}

// Root returns the directory holding the category directories.
func (s *CueStore) Root() string {
	return s.root
}

// Dir returns the directory for a category.
func (s *CueStore) Dir(category prayer.Category) string {
	return filepath.Join(s.root, string(category))
}

// List returns the regular files in a category's directory in name order.
func (s *CueStore) List(category prayer.Category) ([]string, error) {
	dir := s.Dir(category)
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoCue, dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Mode().IsRegular() {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// Pick selects one cue of the category uniformly at random. The listing
// is read again on every call so added or removed files are seen at once.
func (s *CueStore) Pick(category prayer.Category) (string, error) {
	files, err := s.List(category)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrNoCue, s.Dir(category))
	}

	s.mu.Lock()
	i := s.rng.IntN(len(files))
	s.mu.Unlock()

	return files[i], nil
}

// Open opens a cue for reading.
func (s *CueStore) Open(path string) (afero.File, error) {
	return s.fs.Open(path)
}
