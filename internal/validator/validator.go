// Package validator checks Copilot customization files: instruction, prompt
// and chat mode Markdown documents with YAML front matter.
//
// A run is a pure fold over the files of a source. Every check is
// independent and additive, so one run reports every problem it can find.
// Only an environment problem, such as a missing category directory, stops a
// run before any file is checked.
package validator

import (
	"context"
	"errors"
	"fmt"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/drewdunne/copilint/internal/config"
	"github.com/drewdunne/copilint/internal/document"
	"github.com/drewdunne/copilint/internal/metrics"
	"github.com/drewdunne/copilint/internal/source"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrEnvironment marks failures of the environment rather than of the
// validated files: a missing directory or an unreadable tree.
var ErrEnvironment = errors.New("environment error")

// Validator runs the checks. It is safe for concurrent use.
type Validator struct {
	categories      []document.Category
	placeholders    []string
	deprecatedURLs  []string
	warnUnknownKeys bool
	failOnWarnings  bool
	workers         int
	logger          *zap.Logger
	now             func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for progress output.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// New creates a Validator from rule settings. Rules are expected to have
// passed config validation; unknown extra_required categories are ignored.
func New(rules config.RulesConfig, opts ...Option) *Validator {
	v := &Validator{
		placeholders:    append([]string{}, rules.Placeholders...),
		deprecatedURLs:  append([]string{}, rules.DeprecatedURLs...),
		warnUnknownKeys: rules.UnknownKeys != config.UnknownKeysOff,
		failOnWarnings:  rules.FailOnWarnings,
		workers:         rules.Workers,
		logger:          zap.NewNop(),
		now:             time.Now,
	}
	if v.workers <= 0 {
		v.workers = runtime.GOMAXPROCS(0)
	}

	extra := make(map[document.Kind][]string)
	for name, fields := range rules.ExtraRequired {
		if kind, err := document.ParseKind(name); err == nil {
			extra[kind] = append(extra[kind], fields...)
		}
	}
	for _, c := range document.Categories() {
		v.categories = append(v.categories, c.WithRequired(extra[c.Kind]...))
	}

	for _, opt := range opts {
		opt(v)
	}
	return v
}

type job struct {
	category document.Category
	path     string
}

// Validate checks every category file in src plus the repository-wide URL
// rules. Validation problems are findings in the report; the error return
// is reserved for environment failures (matching ErrEnvironment) and
// context cancellation.
func (v *Validator) Validate(ctx context.Context, src source.Source) (*Report, error) {
	metrics.RunStarted()
	report := &Report{
		RunID:          uuid.NewString(),
		Source:         src.Name(),
		StartedAt:      v.now(),
		FailOnWarnings: v.failOnWarnings,
	}
	log := v.logger.With(zap.String("run_id", report.RunID), zap.String("source", report.Source))

	// Enumerate everything before checking anything: an environment
	// problem must not produce a partial report.
	var jobs []job
	for _, cat := range v.categories {
		files, err := src.List(ctx, cat.Dir)
		if err != nil {
			return nil, v.environmentError(ctx, log, fmt.Errorf("%w: category directory %s: %w", ErrEnvironment, cat.Dir, err))
		}
		for _, f := range files {
			if !strings.HasSuffix(path.Base(f), cat.Suffix) {
				continue
			}
			jobs = append(jobs, job{category: cat, path: f})
		}
	}
	all, err := src.Files(ctx)
	var partial *source.PartialError
	if err != nil && !errors.As(err, &partial) {
		return nil, v.environmentError(ctx, log, fmt.Errorf("%w: %w", ErrEnvironment, err))
	}

	results := make([]FileResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i, j := range jobs {
		g.Go(func() error {
			res, err := v.checkFile(gctx, src, j)
			if err != nil {
				return err
			}
			results[i] = res
			log.Debug("checked file",
				zap.String("path", j.path),
				zap.Int("errors", res.Errors()),
				zap.Int("findings", len(res.Findings)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Files = results

	// Files whose read already failed are reported once, by checkFile.
	unread := make(map[string]bool)
	for _, res := range results {
		for _, fd := range res.Findings {
			if fd.Rule == RuleRead {
				unread[res.Path] = true
			}
		}
	}
	if partial != nil {
		report.Links = skippedFindings(partial)
	}
	links, err := v.checkLinks(ctx, all, unread, src.ReadFile)
	if err != nil {
		return nil, err
	}
	report.Links = append(report.Links, links...)

	report.FinishedAt = v.now()
	metrics.RunFinished(report.Passed(), len(report.Files), report.ErrorCount(), report.WarningCount())
	log.Info("validation finished",
		zap.Int("files", len(report.Files)),
		zap.Int("errors", report.ErrorCount()),
		zap.Int("warnings", report.WarningCount()),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

// checkFile reads and checks one file. A read failure becomes a finding;
// only cancellation is returned as an error.
func (v *Validator) checkFile(ctx context.Context, src source.Source, j job) (FileResult, error) {
	res := FileResult{Path: j.path, Category: j.category.Kind}
	data, err := src.ReadFile(ctx, j.path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		res.Findings = []Finding{{
			Path:     j.path,
			Rule:     RuleRead,
			Severity: SeverityError,
			Message:  fmt.Sprintf("could not read file: %v", err),
		}}
		return res, nil
	}
	res.Findings = v.checkDocument(j.category, j.path, data)
	return res, nil
}

func (v *Validator) environmentError(ctx context.Context, log *zap.Logger, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	metrics.EnvironmentError()
	log.Error("validation aborted", zap.Error(err))
	return err
}
