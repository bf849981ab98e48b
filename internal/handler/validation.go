// Package handler runs validations for webhook events against hosted
// repositories.
package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/drewdunne/copilint/internal/config"
	"github.com/drewdunne/copilint/internal/event"
	"github.com/drewdunne/copilint/internal/logging"
	"github.com/drewdunne/copilint/internal/metrics"
	"github.com/drewdunne/copilint/internal/provider"
	"github.com/drewdunne/copilint/internal/report"
	"github.com/drewdunne/copilint/internal/source"
	"github.com/drewdunne/copilint/internal/validator"
	"go.uber.org/zap"
)

// statusTimeout bounds the error status sent after the run's context ended.
const statusTimeout = 10 * time.Second

// Providers looks up configured providers by name.
type Providers interface {
	Get(name string) provider.Provider
}

// ValidationHandler validates the repository revision an event points at
// and reports back through commit statuses and merge request comments.
type ValidationHandler struct {
	providers     Providers
	archive       *logging.Writer
	statusContext string
	logger        *zap.Logger
}

// Option configures a ValidationHandler.
type Option func(*ValidationHandler)

// WithArchive stores every JSON report through w.
func WithArchive(w *logging.Writer) Option {
	return func(h *ValidationHandler) { h.archive = w }
}

// WithStatusContext sets the commit status context (GitHub) or name (GitLab).
func WithStatusContext(name string) Option {
	return func(h *ValidationHandler) {
		if name != "" {
			h.statusContext = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *ValidationHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewValidationHandler creates a new validation handler.
func NewValidationHandler(providers Providers, opts ...Option) *ValidationHandler {
	h := &ValidationHandler{
		providers:     providers,
		statusContext: "copilint",
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle implements event.Handler.
func (h *ValidationHandler) Handle(ctx context.Context, evt *event.Event, rules config.RulesConfig) error {
	log := h.logger.With(
		zap.String("provider", evt.Provider),
		zap.String("repo", evt.RepoOwner+"/"+evt.RepoName),
		zap.String("event", string(evt.Type)),
	)

	prov := h.providers.Get(evt.Provider)
	if prov == nil {
		return fmt.Errorf("provider %s is not configured", evt.Provider)
	}

	if evt.SHA == "" {
		if !evt.IsMergeRequest() {
			return fmt.Errorf("event %s has no commit to validate", evt.Key())
		}
		mr, err := prov.GetMergeRequest(ctx, evt.RepoOwner, evt.RepoName, evt.MRNumber)
		if err != nil {
			return fmt.Errorf("resolving head commit: %w", err)
		}
		evt.SHA = mr.HeadSHA
		if evt.Ref == "" {
			evt.Ref = mr.SourceBranch
		}
	}
	log = log.With(zap.String("sha", evt.SHA))

	// Mentions always run; commits that touch no Markdown do not.
	if evt.Type == event.TypeMROpened || evt.Type == event.TypeMRUpdated {
		relevant, err := touchesMarkdown(ctx, prov, evt)
		if err != nil {
			return err
		}
		if !relevant {
			log.Info("no Markdown changes, skipping")
			return nil
		}
	}

	h.setStatus(ctx, log, prov, evt, provider.StatusPending, "Validating Copilot customization files")

	src := source.NewRemote(prov, evt.RepoOwner, evt.RepoName, evt.SHA)
	repoCfg, err := config.LoadRepoConfig(ctx, src)
	if err != nil {
		h.setErrorStatus(ctx, log, prov, evt, err)
		return fmt.Errorf("loading repo config: %w", err)
	}
	merged := config.MergeRules(rules, repoCfg)

	rep, err := validator.New(merged, validator.WithLogger(log)).Validate(ctx, src)
	if err != nil {
		h.setErrorStatus(ctx, log, prov, evt, err)
		return fmt.Errorf("validating %s: %w", src.Name(), err)
	}

	h.archiveReport(log, evt, rep)

	state := provider.StatusSuccess
	if !rep.Passed() {
		state = provider.StatusFailure
	}
	h.setStatus(ctx, log, prov, evt, state, report.Summary(rep))

	if evt.IsMergeRequest() {
		if err := h.comment(ctx, prov, evt, rep); err != nil {
			return err
		}
	}

	metrics.WebhookProcessed()
	log.Info("validation reported",
		zap.String("run_id", rep.RunID),
		zap.Bool("passed", rep.Passed()),
		zap.Int("errors", rep.ErrorCount()))
	return nil
}

func touchesMarkdown(ctx context.Context, prov provider.Provider, evt *event.Event) (bool, error) {
	files, err := prov.GetChangedFiles(ctx, evt.RepoOwner, evt.RepoName, evt.MRNumber)
	if err != nil {
		return false, fmt.Errorf("listing changed files: %w", err)
	}
	for _, f := range files {
		if strings.HasSuffix(strings.ToLower(f.Path), ".md") || f.Path == config.RepoConfigPath {
			return true, nil
		}
	}
	return false, nil
}

// setStatus reports a commit status. Failures are logged, not returned:
// a token without status scope should not stop the comment.
func (h *ValidationHandler) setStatus(ctx context.Context, log *zap.Logger, prov provider.Provider, evt *event.Event, state provider.StatusState, description string) {
	err := prov.SetCommitStatus(ctx, evt.RepoOwner, evt.RepoName, evt.SHA, provider.CommitStatus{
		State:       state,
		Context:     h.statusContext,
		Description: description,
	})
	if err != nil {
		log.Warn("setting commit status failed", zap.String("state", string(state)), zap.Error(err))
	}
}

// setErrorStatus replaces the pending status after a failed run. It still
// reports when ctx was cancelled, so shutdown never leaves a commit pending.
func (h *ValidationHandler) setErrorStatus(ctx context.Context, log *zap.Logger, prov provider.Provider, evt *event.Event, err error) {
	description := err.Error()
	if ctx.Err() != nil && !errors.Is(err, validator.ErrEnvironment) {
		description = "Validation was interrupted"
	}
	statusCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusTimeout)
	defer cancel()
	h.setStatus(statusCtx, log, prov, evt, provider.StatusError, description)
}

// comment posts the Markdown report unless the latest report comment
// already says the same thing.
func (h *ValidationHandler) comment(ctx context.Context, prov provider.Provider, evt *event.Event, rep *validator.Report) error {
	body := report.Markdown(rep)

	comments, err := prov.GetComments(ctx, evt.RepoOwner, evt.RepoName, evt.MRNumber)
	if err != nil {
		return fmt.Errorf("listing comments: %w", err)
	}
	for i := len(comments) - 1; i >= 0; i-- {
		if strings.HasPrefix(comments[i].Body, report.Marker) {
			if report.SameMarkdown(comments[i].Body, body) {
				return nil
			}
			break
		}
	}

	if err := prov.PostComment(ctx, evt.RepoOwner, evt.RepoName, evt.MRNumber, body); err != nil {
		return fmt.Errorf("posting report: %w", err)
	}
	return nil
}

func (h *ValidationHandler) archiveReport(log *zap.Logger, evt *event.Event, rep *validator.Report) {
	if h.archive == nil {
		return
	}
	var buf bytes.Buffer
	if err := report.JSON(&buf, rep); err != nil {
		log.Warn("encoding report failed", zap.Error(err))
		return
	}
	path, err := h.archive.Write(logging.ReportEntry{
		RunID:     rep.RunID,
		Provider:  evt.Provider,
		RepoOwner: evt.RepoOwner,
		RepoName:  evt.RepoName,
		EventType: string(evt.Type),
		Timestamp: rep.StartedAt,
	}, buf.Bytes())
	if err != nil {
		log.Warn("archiving report failed", zap.Error(err))
		return
	}
	log.Debug("report archived", zap.String("path", path))
}
