package classregistry

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirSource walks a host-supplied directory tree of `.class` files,
// grounded on the teacher lineage's LoadBaseClasses/walk over a
// jmods-style directory. Canonical class names are derived from the
// file's path relative to root, with OS separators normalized to `/`.
type DirSource struct {
	root  string
	files map[string]string // canonical name -> absolute file path
}

// LoadDir walks root once at construction time, indexing every `.class`
// file it finds; ClassBytes reads lazily from disk on each call so a
// DirSource never holds the whole tree's bytes in memory at once.
func LoadDir(root string) (*DirSource, error) {
	ds := &DirSource{root: root, files: make(map[string]string)}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".class") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ".class")
		ds.files[name] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// ClassBytes implements Source.
func (ds *DirSource) ClassBytes(name string) ([]byte, bool) {
	path, ok := ds.files[name]
	if !ok {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// MainClass implements Source. A bare directory of classes carries no
// manifest, so it never identifies an entry point.
func (ds *DirSource) MainClass() (string, bool) {
	return "", false
}
