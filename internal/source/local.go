package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Local reads files from a directory on disk.
type Local struct {
	root string
}

// NewLocal creates a source rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

// Name returns the root directory.
func (l *Local) Name() string {
	return l.root
}

// Root returns the directory the source reads from.
func (l *Local) Root() string {
	return l.root
}

// List returns the regular files directly inside dir.
func (l *Local) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(l.abs(dir))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.ToSlash(filepath.Join(dir, e.Name())))
	}
	sort.Strings(files)
	return files, nil
}

// Files walks the whole tree. Only a failure on the root itself is fatal;
// unreadable subdirectories are skipped and returned in a *PartialError.
func (l *Local) Files(ctx context.Context) ([]string, error) {
	var (
		files  []string
		failed = map[string]error{}
	)
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		if walkErr != nil {
			if rel == "." {
				return walkErr
			}
			failed[filepath.ToSlash(rel)] = walkErr
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if rel != "." && ignoredDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", l.root, err)
	}
	sort.Strings(files)
	if len(failed) > 0 {
		return files, &PartialError{Failed: failed}
	}
	return files, nil
}

// ReadFile reads the file at p.
func (l *Local) ReadFile(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(l.abs(p))
}

func (l *Local) abs(p string) string {
	return filepath.Join(l.root, filepath.FromSlash(p))
}
