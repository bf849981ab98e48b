package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/drewdunne/copilint/internal/webhook"
)

type gitLabPayload struct {
	ObjectKind string `json:"object_kind"`

	// push
	Ref          string  `json:"ref"`
	CheckoutSHA  *string `json:"checkout_sha"`
	UserUsername string  `json:"user_username"`

	ObjectAttributes struct {
		IID          int    `json:"iid"`
		Note         string `json:"note"`
		SourceBranch string `json:"source_branch"`
		Action       string `json:"action"`
		OldRev       string `json:"oldrev"`
		NoteableType string `json:"noteable_type"`
		LastCommit   struct {
			ID string `json:"id"`
		} `json:"last_commit"`
	} `json:"object_attributes"`
	MergeRequest struct {
		IID          int    `json:"iid"`
		SourceBranch string `json:"source_branch"`
		LastCommit   struct {
			ID string `json:"id"`
		} `json:"last_commit"`
	} `json:"merge_request"`
	Project struct {
		PathWithNamespace string `json:"path_with_namespace"`
	} `json:"project"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
}

// NormalizeGitLabEvent converts a GitLab webhook event to a normalized Event.
// Deliveries that should not trigger a run return an error wrapping ErrIgnored.
func NormalizeGitLabEvent(glEvent *webhook.GitLabEvent) (*Event, error) {
	var payload gitLabPayload
	if err := json.Unmarshal(glEvent.RawPayload, &payload); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}

	owner, name, err := splitRepo(payload.Project.PathWithNamespace)
	if err != nil {
		return nil, err
	}

	event := &Event{
		Provider:   "gitlab",
		RepoOwner:  owner,
		RepoName:   name,
		Actor:      payload.User.Username,
		Timestamp:  time.Now(),
		RawPayload: glEvent.RawPayload,
	}

	switch payload.ObjectKind {
	case "push":
		branch, ok := branchName(payload.Ref)
		if !ok {
			return nil, fmt.Errorf("%w: push to %s", ErrIgnored, payload.Ref)
		}
		if payload.CheckoutSHA == nil || *payload.CheckoutSHA == "" {
			return nil, fmt.Errorf("%w: branch %s deleted", ErrIgnored, branch)
		}
		event.Type = TypePush
		event.Ref = branch
		event.SHA = *payload.CheckoutSHA
		event.Actor = payload.UserUsername

	case "merge_request":
		attrs := payload.ObjectAttributes
		event.MRNumber = attrs.IID
		event.Ref = attrs.SourceBranch
		event.SHA = attrs.LastCommit.ID

		switch attrs.Action {
		case "open", "reopen":
			event.Type = TypeMROpened
		case "update":
			// Updates without oldrev are title or label edits.
			if attrs.OldRev == "" {
				return nil, fmt.Errorf("%w: merge request update without new commits", ErrIgnored)
			}
			event.Type = TypeMRUpdated
		default:
			return nil, fmt.Errorf("%w: merge_request action %s", ErrIgnored, attrs.Action)
		}

	case "note":
		if payload.ObjectAttributes.NoteableType != "MergeRequest" {
			return nil, fmt.Errorf("%w: note on %s", ErrIgnored, payload.ObjectAttributes.NoteableType)
		}
		if !containsMention(payload.ObjectAttributes.Note) {
			return nil, fmt.Errorf("%w: note without mention", ErrIgnored)
		}
		event.Type = TypeMention
		event.MRNumber = payload.MergeRequest.IID
		event.Ref = payload.MergeRequest.SourceBranch
		event.SHA = payload.MergeRequest.LastCommit.ID
		event.CommentBody = payload.ObjectAttributes.Note

	default:
		return nil, fmt.Errorf("%w: object_kind %s", ErrIgnored, payload.ObjectKind)
	}

	return event, nil
}
