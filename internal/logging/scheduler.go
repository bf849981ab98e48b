package logging

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CleanupScheduler runs a Cleaner once at start and then on every tick.
type CleanupScheduler struct {
	cleaner  *Cleaner
	interval time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	done     sync.WaitGroup
	stopOnce sync.Once
}

// NewCleanupScheduler creates a scheduler. A nil logger discards output.
func NewCleanupScheduler(cleaner *Cleaner, interval time.Duration, logger *zap.Logger) *CleanupScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupScheduler{
		cleaner:  cleaner,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start launches the cleanup loop. It does not block.
func (s *CleanupScheduler) Start() {
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runCleanup()
		for {
			select {
			case <-ticker.C:
				s.runCleanup()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *CleanupScheduler) runCleanup() {
	deleted, err := s.cleaner.Cleanup()
	if err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
	} else if deleted > 0 {
		s.logger.Info("removed expired reports", zap.Int("count", deleted))
	}
}

// Stop ends the loop and waits for an in-flight cleanup to finish.
func (s *CleanupScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.done.Wait()
}
