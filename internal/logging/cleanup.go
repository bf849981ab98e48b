package logging

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Cleaner removes archived reports older than the retention period.
type Cleaner struct {
	baseDir       string
	retentionDays int
}

// NewCleaner creates a new Cleaner with the specified base directory and retention period.
func NewCleaner(baseDir string, retentionDays int) *Cleaner {
	return &Cleaner{baseDir: baseDir, retentionDays: retentionDays}
}

// Cleanup removes files older than the retention period and then any
// directories left empty. A missing base directory is not an error.
// Returns the number of files deleted.
func (c *Cleaner) Cleanup() (int, error) {
	threshold := time.Now().AddDate(0, 0, -c.retentionDays)
	var deleted int
	var dirs []string

	err := filepath.WalkDir(c.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if path != c.baseDir {
				dirs = append(dirs, path)
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil // removed concurrently
		}
		if info.ModTime().Before(threshold) {
			if err := os.Remove(path); err == nil {
				deleted++
			}
		}
		return nil
	})

	// WalkDir visits parents first, so walking backwards empties children
	// before their parents.
	for i := len(dirs) - 1; i >= 0; i-- {
		if entries, rerr := os.ReadDir(dirs[i]); rerr == nil && len(entries) == 0 {
			os.Remove(dirs[i])
		}
	}

	return deleted, err
}
