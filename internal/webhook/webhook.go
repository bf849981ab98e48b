// Package webhook authenticates provider webhook deliveries and hands the
// decoded payload to a callback.
package webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/drewdunne/copilint/internal/metrics"
)

// ErrBusy is wrapped by callbacks that cannot take more work right now.
// The delivery is answered with 503 so the provider retries it.
var ErrBusy = errors.New("busy")

// MaxPayloadBytes bounds the size of an accepted delivery.
const MaxPayloadBytes = 5 << 20

// readBody reads a POST body, writing the error response itself when it
// returns false.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// accept records an authenticated delivery and runs the callback.
func accept(w http.ResponseWriter, run func() error) {
	metrics.WebhookReceived()
	if err := run(); err != nil {
		if errors.Is(err, ErrBusy) {
			w.Header().Set("Retry-After", "30")
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
