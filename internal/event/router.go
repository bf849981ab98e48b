package event

import (
	"context"
	"time"

	"github.com/drewdunne/copilint/internal/config"
	"go.uber.org/zap"
)

// Handler processes a normalized event with the server rule settings.
type Handler func(ctx context.Context, event *Event, rules config.RulesConfig) error

// Router filters events by type and debounce window before handing them
// to the handler.
type Router struct {
	serverCfg *config.Config
	handler   Handler
	debouncer *Debouncer
	logger    *zap.Logger
}

// NewRouter creates a new event router. A nil logger discards output.
func NewRouter(serverCfg *config.Config, handler Handler, logger *zap.Logger) *Router {
	debounceWindow := time.Duration(serverCfg.Events.DebounceSeconds) * time.Second
	if debounceWindow == 0 {
		debounceWindow = 10 * time.Second // Default
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		serverCfg: serverCfg,
		handler:   handler,
		debouncer: NewDebouncer(debounceWindow),
		logger:    logger,
	}
}

// Route processes an event through the routing pipeline.
func (r *Router) Route(ctx context.Context, event *Event) error {
	log := r.logger.With(zap.String("event", event.Key()))

	if !r.isEventEnabled(event.Type) {
		log.Debug("event type disabled")
		return nil
	}

	r.debouncer.Cleanup()
	if !r.debouncer.ShouldProcess(event) {
		log.Info("event debounced")
		return nil
	}

	return r.handler(ctx, event, r.serverCfg.Rules)
}

func (r *Router) isEventEnabled(t Type) bool {
	switch t {
	case TypePush:
		return r.serverCfg.Events.Push
	case TypeMROpened:
		return r.serverCfg.Events.MROpened
	case TypeMRUpdated:
		return r.serverCfg.Events.MRUpdated
	case TypeMention:
		return r.serverCfg.Events.Mention
	default:
		return false
	}
}
