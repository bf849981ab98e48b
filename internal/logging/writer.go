package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportEntry contains metadata for an archived report.
type ReportEntry struct {
	RunID     string
	Provider  string
	RepoOwner string
	RepoName  string
	EventType string
	Timestamp time.Time
}

// Writer archives reports organized by provider and repository.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer with the specified base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Write stores data for the given entry and returns the file path.
// Directory structure: baseDir/provider/owner/repo/timestamp-eventType-runID.json
// The file appears atomically.
func (w *Writer) Write(entry ReportEntry, data []byte) (string, error) {
	dir := filepath.Join(
		w.baseDir,
		entry.Provider,
		filepath.FromSlash(entry.RepoOwner),
		entry.RepoName,
	)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s-%s.json",
		entry.Timestamp.UTC().Format("2006-01-02T15-04-05"),
		entry.EventType,
		entry.RunID,
	)
	path := filepath.Join(dir, filename)

	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing report file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("renaming report file: %w", err)
	}

	return path, nil
}
