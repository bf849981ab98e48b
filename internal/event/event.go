package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type represents the type of webhook event.
type Type string

const (
	TypePush      Type = "push"
	TypeMROpened  Type = "mr_opened"
	TypeMRUpdated Type = "mr_updated"
	TypeMention   Type = "mention"
)

// MentionTrigger is the comment text that requests a validation run.
const MentionTrigger = "@copilint"

// ErrIgnored is returned by the normalizers for deliveries that never
// trigger a run, such as branch deletions or ordinary comments.
var ErrIgnored = errors.New("event ignored")

// Event represents a normalized webhook event.
type Event struct {
	// Type is the event type.
	Type Type

	// Provider is the git provider (github, gitlab).
	Provider string

	// Repository information. RepoOwner holds the full namespace on GitLab.
	RepoOwner string
	RepoName  string

	// Ref is the branch the event refers to and SHA the commit to
	// validate. SHA is empty for mentions until the handler resolves it.
	Ref string
	SHA string

	// Merge request number, zero for pushes.
	MRNumber int

	// CommentBody is set for mentions.
	CommentBody string

	// Actor who triggered the event.
	Actor string

	// Timestamp of the event.
	Timestamp time.Time

	// RawPayload is the original webhook payload.
	RawPayload []byte
}

// IsMergeRequest reports whether the event belongs to a merge request.
func (e *Event) IsMergeRequest() bool {
	return e.MRNumber > 0
}

// Key returns a unique key for this event (used for debouncing).
func (e *Event) Key() string {
	return e.Provider + "/" + e.RepoOwner + "/" + e.RepoName + "/" + string(e.Type) + "/" + fmt.Sprint(e.MRNumber) + "/" + e.SHA
}

// splitRepo splits "namespace/name" at the last slash so GitLab subgroups
// stay in the owner.
func splitRepo(full string) (owner, name string, err error) {
	i := strings.LastIndex(full, "/")
	if i <= 0 || i == len(full)-1 {
		return "", "", fmt.Errorf("invalid repository path: %q", full)
	}
	return full[:i], full[i+1:], nil
}

// branchName strips refs/heads/ from ref. ok is false for tags and other
// non-branch refs.
func branchName(ref string) (string, bool) {
	const prefix = "refs/heads/"
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	return strings.TrimPrefix(ref, prefix), true
}

// deletedSHA is sent as the new revision when a branch is deleted.
const deletedSHA = "0000000000000000000000000000000000000000"

// containsMention checks if the text contains the mention trigger.
func containsMention(text string) bool {
	return strings.Contains(strings.ToLower(text), MentionTrigger)
}
