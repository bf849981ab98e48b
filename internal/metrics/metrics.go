package metrics

import (
	"sync/atomic"
)

// Metrics tracks operational metrics.
type Metrics struct {
	RunsStarted       uint64 `json:"runs_started"`
	RunsPassed        uint64 `json:"runs_passed"`
	RunsFailed        uint64 `json:"runs_failed"`
	EnvironmentErrors uint64 `json:"environment_errors"`
	FilesValidated    uint64 `json:"files_validated"`
	ErrorsFound       uint64 `json:"errors_found"`
	WarningsFound     uint64 `json:"warnings_found"`
	WebhooksReceived  uint64 `json:"webhooks_received"`
	WebhooksProcessed uint64 `json:"webhooks_processed"`
}

var global = &Metrics{}

// RunStarted increments the count of validation runs started.
func RunStarted() { atomic.AddUint64(&global.RunsStarted, 1) }

// RunFinished records the outcome of a completed validation run.
func RunFinished(passed bool, files, errors, warnings int) {
	if passed {
		atomic.AddUint64(&global.RunsPassed, 1)
	} else {
		atomic.AddUint64(&global.RunsFailed, 1)
	}
	atomic.AddUint64(&global.FilesValidated, uint64(files))
	atomic.AddUint64(&global.ErrorsFound, uint64(errors))
	atomic.AddUint64(&global.WarningsFound, uint64(warnings))
}

// EnvironmentError increments the count of runs aborted by the environment.
func EnvironmentError() { atomic.AddUint64(&global.EnvironmentErrors, 1) }

// WebhookReceived increments the count of webhooks received.
func WebhookReceived() { atomic.AddUint64(&global.WebhooksReceived, 1) }

// WebhookProcessed increments the count of webhooks processed.
func WebhookProcessed() { atomic.AddUint64(&global.WebhooksProcessed, 1) }

// Get returns a snapshot of the current metrics.
func Get() Metrics {
	return Metrics{
		RunsStarted:       atomic.LoadUint64(&global.RunsStarted),
		RunsPassed:        atomic.LoadUint64(&global.RunsPassed),
		RunsFailed:        atomic.LoadUint64(&global.RunsFailed),
		EnvironmentErrors: atomic.LoadUint64(&global.EnvironmentErrors),
		FilesValidated:    atomic.LoadUint64(&global.FilesValidated),
		ErrorsFound:       atomic.LoadUint64(&global.ErrorsFound),
		WarningsFound:     atomic.LoadUint64(&global.WarningsFound),
		WebhooksReceived:  atomic.LoadUint64(&global.WebhooksReceived),
		WebhooksProcessed: atomic.LoadUint64(&global.WebhooksProcessed),
	}
}

// Reset resets all metrics to zero (useful for testing).
func Reset() {
	atomic.StoreUint64(&global.RunsStarted, 0)
	atomic.StoreUint64(&global.RunsPassed, 0)
	atomic.StoreUint64(&global.RunsFailed, 0)
	atomic.StoreUint64(&global.EnvironmentErrors, 0)
	atomic.StoreUint64(&global.FilesValidated, 0)
	atomic.StoreUint64(&global.ErrorsFound, 0)
	atomic.StoreUint64(&global.WarningsFound, 0)
	atomic.StoreUint64(&global.WebhooksReceived, 0)
	atomic.StoreUint64(&global.WebhooksProcessed, 0)
}
