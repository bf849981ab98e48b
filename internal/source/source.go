// Package source abstracts where the files under validation come from: a
// local checkout or a snapshot of a remote revision.
package source

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Source gives read-only access to a repository tree. Paths are
// slash-separated and relative to the repository root.
type Source interface {
	// Name identifies the source in reports.
	Name() string

	// List returns the regular files directly inside dir, sorted.
	// It returns an error matching fs.ErrNotExist when dir is missing.
	List(ctx context.Context, dir string) ([]string, error)

	// Files returns every file in the tree, sorted, skipping ignored
	// directories such as .git. Directories that cannot be read are
	// reported with a *PartialError alongside the files that were found.
	Files(ctx context.Context) ([]string, error)

	// ReadFile returns the contents of the file at p.
	ReadFile(ctx context.Context, p string) ([]byte, error)
}

// PartialError lists the paths a tree walk had to skip. The file list
// returned with it is still usable.
type PartialError struct {
	Failed map[string]error
}

func (e *PartialError) Error() string {
	paths := make([]string, 0, len(e.Failed))
	for p := range e.Failed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return fmt.Sprintf("could not read %d path(s): %s", len(paths), strings.Join(paths, ", "))
}

var ignoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

// Ignored reports whether p lies inside a directory that is never scanned.
func Ignored(p string) bool {
	for _, part := range strings.Split(path.Clean(p), "/") {
		if ignoredDirs[part] {
			return true
		}
	}
	return false
}
