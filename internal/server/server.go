// Package server exposes the webhook endpoints that trigger remote
// validations, plus health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/drewdunne/copilint/internal/config"
	"github.com/drewdunne/copilint/internal/event"
	"github.com/drewdunne/copilint/internal/metrics"
	"github.com/drewdunne/copilint/internal/queue"
	"github.com/drewdunne/copilint/internal/webhook"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response structure.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// Server is the HTTP server for copilint.
type Server struct {
	cfg          *config.Config
	mux          *http.ServeMux
	httpServer   *httpServer
	httpServerMu sync.RWMutex  // protects httpServer pointer
	ready        chan struct{} // closed when server is ready to accept connections
	eventRouter  *event.Router
	logger       *zap.Logger
	webhooks     []string

	// Validations run on the queue, outliving the webhook request.
	queue *queue.Manager
}

// New creates a new Server. A nil router acknowledges webhooks without
// acting on them; a nil logger discards output.
func New(cfg *config.Config, router *event.Router, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:         cfg,
		mux:         http.NewServeMux(),
		ready:       make(chan struct{}),
		eventRouter: router,
		logger:      logger,
		queue: queue.NewManager(queue.Config{
			MaxConcurrent: cfg.Server.MaxConcurrent,
			QueueSize:     cfg.Server.QueueSize,
		}),
	}
	s.routes()
	return s
}

// Ready returns a channel that is closed when the server is ready to accept connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// routes sets up the HTTP routes.
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/metrics", s.handleMetrics)

	// GitHub webhook
	if s.cfg.Providers.GitHub.WebhookSecret != "" {
		githubHandler := webhook.NewGitHubHandler(
			s.cfg.Providers.GitHub.WebhookSecret,
			s.handleGitHubEvent,
		)
		s.mux.Handle("/webhook/github", githubHandler)
		s.webhooks = append(s.webhooks, "github")
	}

	// GitLab webhook
	if s.cfg.Providers.GitLab.WebhookSecret != "" {
		gitlabHandler := webhook.NewGitLabHandler(
			s.cfg.Providers.GitLab.WebhookSecret,
			s.handleGitLabEvent,
		)
		s.mux.Handle("/webhook/gitlab", gitlabHandler)
		s.webhooks = append(s.webhooks, "gitlab")
	}
}

// handleHealth responds with server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	webhooks := s.webhooks
	if webhooks == nil {
		webhooks = []string{}
	}
	health := HealthResponse{
		Status: "ok",
		Checks: map[string]interface{}{
			"webhooks":           webhooks,
			"routing":            s.eventRouter != nil,
			"active_validations": s.queue.Active(),
			"queued_validations": s.queue.Pending(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleGitHubEvent processes a GitHub webhook event.
func (s *Server) handleGitHubEvent(ctx context.Context, ghEvent *webhook.GitHubEvent) error {
	log := s.logger.With(
		zap.String("provider", "github"),
		zap.String("delivery", ghEvent.DeliveryID),
		zap.String("event", ghEvent.EventType),
		zap.String("action", ghEvent.Action),
	)
	log.Debug("webhook received")
	if s.eventRouter == nil {
		return nil
	}

	normalized, err := event.NormalizeGitHubEvent(ghEvent)
	if err != nil {
		s.logNormalizeError(log, err)
		return nil
	}
	return s.dispatch(log, normalized)
}

// handleGitLabEvent processes a GitLab webhook event.
func (s *Server) handleGitLabEvent(ctx context.Context, glEvent *webhook.GitLabEvent) error {
	log := s.logger.With(
		zap.String("provider", "gitlab"),
		zap.String("delivery", glEvent.DeliveryID),
		zap.String("event", glEvent.EventType),
		zap.String("kind", glEvent.ObjectKind),
	)
	log.Debug("webhook received")
	if s.eventRouter == nil {
		return nil
	}

	normalized, err := event.NormalizeGitLabEvent(glEvent)
	if err != nil {
		s.logNormalizeError(log, err)
		return nil
	}
	return s.dispatch(log, normalized)
}

// Don't fail the webhook for payloads we cannot use; the provider would
// only retry them.
func (s *Server) logNormalizeError(log *zap.Logger, err error) {
	if errors.Is(err, event.ErrIgnored) {
		log.Debug("webhook ignored", zap.Error(err))
		return
	}
	log.Warn("failed to normalize webhook", zap.Error(err))
}

// dispatch queues e for routing so the delivery is acknowledged before the
// validation runs.
func (s *Server) dispatch(log *zap.Logger, e *event.Event) error {
	err := s.queue.Enqueue(func(ctx context.Context) {
		if err := s.eventRouter.Route(ctx, e); err != nil {
			log.Error("validation failed", zap.String("key", e.Key()), zap.Error(err))
		}
	})
	if err != nil {
		log.Warn("validation not queued", zap.Error(err))
		return fmt.Errorf("%w: %w", webhook.ErrBusy, err)
	}
	return nil
}

// handleMetrics responds with current operational metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := metrics.Get()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}
