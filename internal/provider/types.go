package provider

import "time"

// MergeRequest represents a merge request/pull request.
type MergeRequest struct {
	ID           int
	Number       int // PR number (GitHub) or MR IID (GitLab)
	Title        string
	Description  string
	SourceBranch string
	TargetBranch string
	HeadSHA      string
	State        string // open, closed, merged
	Author       string
	URL          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment represents a comment on a merge request.
type Comment struct {
	ID        int
	Body      string
	Author    string
	CreatedAt time.Time
}

// ChangedFile represents a file changed in a merge request.
type ChangedFile struct {
	Path      string
	Status    string // added, modified, deleted, renamed
	Additions int
	Deletions int
}

// Repository represents a git repository.
type Repository struct {
	ID            int
	Name          string
	FullName      string // owner/repo
	CloneURL      string
	SSHURL        string
	DefaultBranch string
}

// StatusState is the state of a commit status.
type StatusState string

const (
	StatusPending StatusState = "pending"
	StatusSuccess StatusState = "success"
	StatusFailure StatusState = "failure"
	StatusError   StatusState = "error"
)

// CommitStatus is a check result attached to a commit.
type CommitStatus struct {
	State       StatusState
	Context     string
	Description string
	TargetURL   string
}

// MaxStatusDescription is the longest description GitHub accepts.
const MaxStatusDescription = 140

// Truncate shortens the description to MaxStatusDescription runes.
func (s CommitStatus) Truncate() CommitStatus {
	r := []rune(s.Description)
	if len(r) > MaxStatusDescription {
		s.Description = string(r[:MaxStatusDescription-1]) + "…"
	}
	return s
}
