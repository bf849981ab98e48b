// Package watch re-validates a working tree whenever its Markdown files
// change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drewdunne/copilint/internal/document"
	"github.com/drewdunne/copilint/internal/source"
	"github.com/drewdunne/copilint/internal/validator"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultQuietPeriod is how long the tree must be unchanged before a
// re-validation starts. Editors often write a file in several steps.
const DefaultQuietPeriod = 200 * time.Millisecond

// ReportFunc receives the outcome of every run. err is non-nil for
// environment failures, such as a category directory that was removed.
type ReportFunc func(rep *validator.Report, err error)

// Watcher validates a directory and re-validates it on change.
type Watcher struct {
	root     string
	v        *validator.Validator
	onReport ReportFunc
	quiet    time.Duration
	logger   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithQuietPeriod overrides DefaultQuietPeriod.
func WithQuietPeriod(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.quiet = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for root.
func New(root string, v *validator.Validator, onReport ReportFunc, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		v:        v,
		onReport: onReport,
		quiet:    DefaultQuietPeriod,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run validates once, then again after every quiet period that follows a
// Markdown change anywhere in the tree or a change to a category
// directory. It returns nil when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	// The URL checks cover every Markdown file, so the whole tree is
	// watched, minus the directories a run never reads.
	w.addTree(fw, w.root)
	for _, c := range document.Categories() {
		if _, err := os.Stat(w.abs(c.Dir)); err != nil {
			w.logger.Warn("category directory missing", zap.String("dir", c.Dir), zap.Error(err))
		}
	}

	w.validate(ctx)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.addTree(fw, ev.Name)
				}
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("change detected", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.quiet)
			} else {
				timer.Reset(w.quiet)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			w.validate(ctx)
		}
	}
}

// addTree watches dir and every directory below it that is not ignored.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) {
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("not watching directory", zap.String("dir", p), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(w.root, p); err == nil && rel != "." && source.Ignored(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			w.logger.Warn("not watching directory", zap.String("dir", p), zap.Error(err))
			return nil
		}
		w.logger.Debug("watching directory", zap.String("dir", p))
		return nil
	})
	if err != nil {
		w.logger.Warn("walking tree", zap.String("dir", dir), zap.Error(err))
	}
}

func (w *Watcher) validate(ctx context.Context) {
	rep, err := w.v.Validate(ctx, source.NewLocal(w.root))
	if ctx.Err() != nil {
		return
	}
	w.onReport(rep, err)
}

// relevant reports whether ev may change the outcome of a run.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	if w.isCategoryDir(ev.Name) {
		return true
	}
	return strings.EqualFold(filepath.Ext(ev.Name), ".md")
}

func (w *Watcher) isCategoryDir(name string) bool {
	for _, c := range document.Categories() {
		if filepath.Clean(name) == w.abs(c.Dir) {
			return true
		}
	}
	return false
}

func (w *Watcher) abs(dir string) string {
	return filepath.Join(w.root, filepath.FromSlash(dir))
}
