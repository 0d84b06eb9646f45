package emit

import (
	"os"
	"path/filepath"
	"strings"
)

// fileSet accumulates generated .mcfunction content in memory, keyed by
// its path relative to the output functions directory, so the emitter
// (and its tests) never need to touch a real filesystem until Flush.
type fileSet struct {
	files map[string]*strings.Builder
}

func newFileSet() *fileSet {
	return &fileSet{files: make(map[string]*strings.Builder)}
}

// file returns the builder for relPath (e.g. "MCSH/Foo.mcfunction"),
// creating it empty on first use.
func (fs *fileSet) file(relPath string) *strings.Builder {
	if b, ok := fs.files[relPath]; ok {
		return b
	}
	b := &strings.Builder{}
	fs.files[relPath] = b
	return b
}

// Flush writes every accumulated file under dir, creating directories as
// needed.
func (fs *fileSet) Flush(dir string) error {
	for relPath, b := range fs.files {
		full := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Files exposes the in-memory content for tests.
func (fs *fileSet) Files() map[string]string {
	out := make(map[string]string, len(fs.files))
	for k, b := range fs.files {
		out[k] = b.String()
	}
	return out
}
