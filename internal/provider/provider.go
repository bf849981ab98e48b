package provider

import "context"

// Provider defines the interface for git provider operations.
type Provider interface {
	// Name returns the provider name (github, gitlab).
	Name() string

	// GetRepository fetches repository metadata.
	GetRepository(ctx context.Context, owner, repo string) (*Repository, error)

	// GetMergeRequest fetches a merge request by number.
	GetMergeRequest(ctx context.Context, owner, repo string, number int) (*MergeRequest, error)

	// GetChangedFiles returns files changed in a merge request.
	GetChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error)

	// ListFiles returns the path of every file in the tree at ref.
	ListFiles(ctx context.Context, owner, repo, ref string) ([]string, error)

	// ReadFile returns the content of path at ref. A missing file yields an
	// error wrapping fs.ErrNotExist.
	ReadFile(ctx context.Context, owner, repo, path, ref string) ([]byte, error)

	// PostComment posts a comment on a merge request.
	PostComment(ctx context.Context, owner, repo string, number int, body string) error

	// GetComments fetches comments on a merge request.
	GetComments(ctx context.Context, owner, repo string, number int) ([]Comment, error)

	// SetCommitStatus reports a status for the commit sha.
	SetCommitStatus(ctx context.Context, owner, repo, sha string, status CommitStatus) error
}
