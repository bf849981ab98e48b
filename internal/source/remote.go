package source

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

// TreeReader reads a repository revision from a git hosting provider.
type TreeReader interface {
	ListFiles(ctx context.Context, owner, repo, ref string) ([]string, error)
	ReadFile(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
}

// Remote is a snapshot of one revision of a hosted repository. The file list
// is fetched once; contents are fetched on first read and cached.
type Remote struct {
	reader TreeReader
	owner  string
	repo   string
	ref    string

	listOnce sync.Once
	files    []string
	listErr  error

	mu    sync.Mutex
	cache map[string][]byte
}

// NewRemote creates a snapshot source for owner/repo at ref.
func NewRemote(reader TreeReader, owner, repo, ref string) *Remote {
	return &Remote{
		reader: reader,
		owner:  owner,
		repo:   repo,
		ref:    ref,
		cache:  make(map[string][]byte),
	}
}

// Name returns owner/repo@ref.
func (r *Remote) Name() string {
	return fmt.Sprintf("%s/%s@%s", r.owner, r.repo, r.ref)
}

// List returns the files directly inside dir.
func (r *Remote) List(ctx context.Context, dir string) ([]string, error) {
	all, err := r.Files(ctx)
	if err != nil {
		return nil, err
	}
	dir = path.Clean(dir)
	var files []string
	found := false
	prefix := dir + "/"
	for _, f := range all {
		if !strings.HasPrefix(f, prefix) {
			continue
		}
		found = true
		if path.Dir(f) == dir {
			files = append(files, f)
		}
	}
	if !found {
		// Git trees have no empty directories.
		return nil, fmt.Errorf("listing %s: %w", dir, fs.ErrNotExist)
	}
	return files, nil
}

// Files returns every file of the revision.
func (r *Remote) Files(ctx context.Context) ([]string, error) {
	r.listOnce.Do(func() {
		files, err := r.reader.ListFiles(ctx, r.owner, r.repo, r.ref)
		if err != nil {
			r.listErr = fmt.Errorf("listing %s: %w", r.Name(), err)
			return
		}
		kept := make([]string, 0, len(files))
		for _, f := range files {
			if !Ignored(f) {
				kept = append(kept, f)
			}
		}
		sort.Strings(kept)
		r.files = kept
	})
	return r.files, r.listErr
}

// ReadFile fetches the file at p, caching the contents.
func (r *Remote) ReadFile(ctx context.Context, p string) ([]byte, error) {
	r.mu.Lock()
	data, ok := r.cache[p]
	r.mu.Unlock()
	if ok {
		return data, nil
	}

	data, err := r.reader.ReadFile(ctx, r.owner, r.repo, p, r.ref)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[p] = data
	r.mu.Unlock()
	return data, nil
}

// Target identifies a remote repository revision.
type Target struct {
	Provider string
	Owner    string
	Repo     string
	Ref      string
}

// ParseRemote parses "provider:owner/repo[@ref]". GitLab subgroups are kept
// in the owner ("gitlab:group/sub/repo").
func ParseRemote(spec string) (Target, error) {
	providerName, rest, ok := strings.Cut(spec, ":")
	if !ok || providerName == "" {
		return Target{}, fmt.Errorf("invalid remote %q: want provider:owner/repo[@ref]", spec)
	}
	repoPath, ref, _ := strings.Cut(rest, "@")
	i := strings.LastIndex(repoPath, "/")
	if i <= 0 || i == len(repoPath)-1 {
		return Target{}, fmt.Errorf("invalid remote %q: want provider:owner/repo[@ref]", spec)
	}
	return Target{
		Provider: providerName,
		Owner:    repoPath[:i],
		Repo:     repoPath[i+1:],
		Ref:      ref,
	}, nil
}
