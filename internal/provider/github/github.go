package github

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/drewdunne/copilint/internal/provider"
	"github.com/google/go-github/v60/github"
)

// GitHubProvider implements provider.Provider for GitHub.
type GitHubProvider struct {
	client *github.Client
}

// Option configures the GitHub provider.
type Option func(*GitHubProvider)

// WithBaseURL sets a custom base URL (for GitHub Enterprise and testing).
func WithBaseURL(url string) Option {
	return func(p *GitHubProvider) {
		p.client.BaseURL, _ = p.client.BaseURL.Parse(url + "/")
	}
}

// New creates a new GitHub provider.
func New(token string, opts ...Option) *GitHubProvider {
	httpClient := &http.Client{
		Transport: &tokenTransport{token: token},
	}
	p := &GitHubProvider{client: github.NewClient(httpClient)}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// tokenTransport adds authorization header to requests.
type tokenTransport struct {
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// Name returns the provider name.
func (p *GitHubProvider) Name() string {
	return "github"
}

// GetRepository fetches repository metadata.
func (p *GitHubProvider) GetRepository(ctx context.Context, owner, repo string) (*provider.Repository, error) {
	r, _, err := p.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching repository: %w", err)
	}

	return &provider.Repository{
		ID:            int(r.GetID()),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		CloneURL:      r.GetCloneURL(),
		SSHURL:        r.GetSSHURL(),
		DefaultBranch: r.GetDefaultBranch(),
	}, nil
}

// GetMergeRequest fetches a pull request by number.
func (p *GitHubProvider) GetMergeRequest(ctx context.Context, owner, repo string, number int) (*provider.MergeRequest, error) {
	pr, _, err := p.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request: %w", err)
	}

	return &provider.MergeRequest{
		ID:           int(pr.GetID()),
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		Description:  pr.GetBody(),
		SourceBranch: pr.GetHead().GetRef(),
		TargetBranch: pr.GetBase().GetRef(),
		HeadSHA:      pr.GetHead().GetSHA(),
		State:        pr.GetState(),
		Author:       pr.GetUser().GetLogin(),
		URL:          pr.GetHTMLURL(),
		CreatedAt:    pr.GetCreatedAt().Time,
		UpdatedAt:    pr.GetUpdatedAt().Time,
	}, nil
}

// GetChangedFiles returns files changed in a pull request.
func (p *GitHubProvider) GetChangedFiles(ctx context.Context, owner, repo string, number int) ([]provider.ChangedFile, error) {
	var result []provider.ChangedFile
	opts := &github.ListOptions{PerPage: 100}
	for {
		files, resp, err := p.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing changed files: %w", err)
		}
		for _, f := range files {
			result = append(result, provider.ChangedFile{
				Path:      f.GetFilename(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
			})
		}
		if resp.NextPage == 0 {
			return result, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListFiles returns every blob in the recursive tree at ref.
func (p *GitHubProvider) ListFiles(ctx context.Context, owner, repo, ref string) ([]string, error) {
	tree, _, err := p.client.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, fmt.Errorf("fetching tree: %w", notFound(err))
	}
	if tree.GetTruncated() {
		return nil, fmt.Errorf("tree of %s/%s@%s is too large to list", owner, repo, ref)
	}

	var files []string
	for _, e := range tree.Entries {
		if e.GetType() == "blob" {
			files = append(files, e.GetPath())
		}
	}
	return files, nil
}

// ReadFile fetches the decoded content of path at ref.
func (p *GitHubProvider) ReadFile(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	file, _, _, err := p.client.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, notFound(err))
	}
	if file == nil {
		return nil, fmt.Errorf("fetching %s: is a directory", path)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return []byte(content), nil
}

// PostComment posts a comment on a pull request.
func (p *GitHubProvider) PostComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := p.client.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: &body,
	})
	if err != nil {
		return fmt.Errorf("posting comment: %w", err)
	}
	return nil
}

// GetComments fetches comments on a pull request.
func (p *GitHubProvider) GetComments(ctx context.Context, owner, repo string, number int) ([]provider.Comment, error) {
	comments, _, err := p.client.Issues.ListComments(ctx, owner, repo, number, nil)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	result := make([]provider.Comment, len(comments))
	for i, c := range comments {
		result[i] = provider.Comment{
			ID:        int(c.GetID()),
			Body:      c.GetBody(),
			Author:    c.GetUser().GetLogin(),
			CreatedAt: c.GetCreatedAt().Time,
		}
	}
	return result, nil
}

// SetCommitStatus creates a commit status for sha.
func (p *GitHubProvider) SetCommitStatus(ctx context.Context, owner, repo, sha string, status provider.CommitStatus) error {
	status = status.Truncate()
	state := string(status.State)
	rs := &github.RepoStatus{
		State:       &state,
		Context:     &status.Context,
		Description: &status.Description,
	}
	if status.TargetURL != "" {
		rs.TargetURL = &status.TargetURL
	}
	if _, _, err := p.client.Repositories.CreateStatus(ctx, owner, repo, sha, rs); err != nil {
		return fmt.Errorf("setting commit status: %w", err)
	}
	return nil
}

// notFound makes a 404 from the API match fs.ErrNotExist.
func notFound(err error) error {
	var apiErr *github.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Response != nil && apiErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", fs.ErrNotExist, err)
	}
	return err
}
