package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// GitLabEvent represents a parsed GitLab webhook event.
type GitLabEvent struct {
	EventType        string
	DeliveryID       string
	ObjectKind       string `json:"object_kind"`
	ObjectAttributes struct {
		Action string `json:"action"`
	} `json:"object_attributes"`
	RawPayload []byte
}

// GitLabEventHandler is called when a valid GitLab webhook is received.
type GitLabEventHandler func(ctx context.Context, event *GitLabEvent) error

// GitLabHandler handles GitLab webhook requests.
type GitLabHandler struct {
	secret  string
	handler GitLabEventHandler
}

// NewGitLabHandler creates a new GitLab webhook handler.
func NewGitLabHandler(secret string, handler GitLabEventHandler) *GitLabHandler {
	return &GitLabHandler{
		secret:  secret,
		handler: handler,
	}
}

// ServeHTTP implements http.Handler.
func (h *GitLabHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	token := r.Header.Get("X-Gitlab-Token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	event := &GitLabEvent{
		EventType:  r.Header.Get("X-Gitlab-Event"),
		DeliveryID: r.Header.Get("X-Gitlab-Event-UUID"),
		RawPayload: body,
	}
	if err := json.Unmarshal(body, event); err != nil {
		http.Error(w, "failed to parse payload", http.StatusBadRequest)
		return
	}

	accept(w, func() error { return h.handler(r.Context(), event) })
}
