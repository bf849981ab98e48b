package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/drewdunne/copilint/internal/webhook"
)

// gitHubPayload represents the subset of GitHub webhook payloads we read.
type gitHubPayload struct {
	Action string `json:"action"`
	Number int    `json:"number"`

	// push
	Ref     string `json:"ref"`
	After   string `json:"after"`
	Deleted bool   `json:"deleted"`

	PullRequest struct {
		Head struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
	Issue struct {
		Number      int              `json:"number"`
		PullRequest *json.RawMessage `json:"pull_request"`
	} `json:"issue"`
	Comment struct {
		Body string `json:"body"`
	} `json:"comment"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
}

// NormalizeGitHubEvent converts a GitHub webhook event to a normalized Event.
// Deliveries that should not trigger a run return an error wrapping ErrIgnored.
func NormalizeGitHubEvent(ghEvent *webhook.GitHubEvent) (*Event, error) {
	var payload gitHubPayload
	if err := json.Unmarshal(ghEvent.RawPayload, &payload); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}

	owner, name, err := splitRepo(payload.Repository.FullName)
	if err != nil {
		return nil, err
	}

	event := &Event{
		Provider:   "github",
		RepoOwner:  owner,
		RepoName:   name,
		Actor:      payload.Sender.Login,
		Timestamp:  time.Now(),
		RawPayload: ghEvent.RawPayload,
	}

	switch ghEvent.EventType {
	case "push":
		branch, ok := branchName(payload.Ref)
		if !ok {
			return nil, fmt.Errorf("%w: push to %s", ErrIgnored, payload.Ref)
		}
		if payload.Deleted || payload.After == "" || payload.After == deletedSHA {
			return nil, fmt.Errorf("%w: branch %s deleted", ErrIgnored, branch)
		}
		event.Type = TypePush
		event.Ref = branch
		event.SHA = payload.After

	case "pull_request":
		event.MRNumber = payload.Number
		event.Ref = payload.PullRequest.Head.Ref
		event.SHA = payload.PullRequest.Head.SHA

		switch payload.Action {
		case "opened", "reopened":
			event.Type = TypeMROpened
		case "synchronize":
			event.Type = TypeMRUpdated
		default:
			return nil, fmt.Errorf("%w: pull_request action %s", ErrIgnored, payload.Action)
		}

	case "issue_comment":
		if payload.Action != "created" || payload.Issue.PullRequest == nil {
			return nil, fmt.Errorf("%w: comment is not a new pull request comment", ErrIgnored)
		}
		if !containsMention(payload.Comment.Body) {
			return nil, fmt.Errorf("%w: comment without mention", ErrIgnored)
		}
		event.Type = TypeMention
		event.MRNumber = payload.Issue.Number
		event.CommentBody = payload.Comment.Body

	default:
		return nil, fmt.Errorf("%w: event type %s", ErrIgnored, ghEvent.EventType)
	}

	return event, nil
}
