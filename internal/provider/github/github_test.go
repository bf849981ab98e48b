package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/drewdunne/copilint/internal/provider"
)

func TestGitHubProvider_GetRepository(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing or incorrect authorization header")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             123,
			"name":           "repo",
			"full_name":      "owner/repo",
			"clone_url":      "https://github.com/owner/repo.git",
			"ssh_url":        "git@github.com:owner/repo.git",
			"default_branch": "main",
		})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	repo, err := p.GetRepository(context.Background(), "owner", "repo")
	if err != nil {
		t.Fatalf("GetRepository() error = %v", err)
	}

	if repo.FullName != "owner/repo" {
		t.Errorf("FullName = %q, want %q", repo.FullName, "owner/repo")
	}
	if repo.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q, want %q", repo.DefaultBranch, "main")
	}
}

func TestGitHubProvider_GetMergeRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/pulls/42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     999,
			"number": 42,
			"title":  "Test PR",
			"body":   "Description",
			"state":  "open",
			"head":   map[string]string{"ref": "feature", "sha": "abc123"},
			"base":   map[string]string{"ref": "main"},
			"user":   map[string]string{"login": "author"},
			"html_url": "https://github.com/owner/repo/pull/42",
		})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	mr, err := p.GetMergeRequest(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetMergeRequest() error = %v", err)
	}

	if mr.Number != 42 {
		t.Errorf("Number = %d, want %d", mr.Number, 42)
	}
	if mr.Title != "Test PR" {
		t.Errorf("Title = %q, want %q", mr.Title, "Test PR")
	}
	if mr.SourceBranch != "feature" {
		t.Errorf("SourceBranch = %q, want %q", mr.SourceBranch, "feature")
	}
	if mr.HeadSHA != "abc123" {
		t.Errorf("HeadSHA = %q, want %q", mr.HeadSHA, "abc123")
	}
}

func TestGitHubProvider_Name(t *testing.T) {
	p := New("test-token")
	if p.Name() != "github" {
		t.Errorf("Name() = %q, want %q", p.Name(), "github")
	}
}

func TestGitHubProvider_GetChangedFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/pulls/42/files" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"filename": "file1.go", "status": "modified", "additions": 10, "deletions": 5},
			{"filename": "file2.go", "status": "added", "additions": 20, "deletions": 0},
		})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	files, err := p.GetChangedFiles(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetChangedFiles() error = %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("GetChangedFiles() returned %d files, want 2", len(files))
	}
	if files[0].Path != "file1.go" {
		t.Errorf("files[0].Path = %q, want %q", files[0].Path, "file1.go")
	}
}

func TestGitHubProvider_PostComment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/issues/42/comments" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 1})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	err := p.PostComment(context.Background(), "owner", "repo", 42, "test comment")
	if err != nil {
		t.Fatalf("PostComment() error = %v", err)
	}
}

func TestGitHubProvider_GetComments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/issues/42/comments" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": 1, "body": "comment 1", "user": map[string]string{"login": "user1"}},
			{"id": 2, "body": "comment 2", "user": map[string]string{"login": "user2"}},
		})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	comments, err := p.GetComments(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetComments() error = %v", err)
	}

	if len(comments) != 2 {
		t.Fatalf("GetComments() returned %d comments, want 2", len(comments))
	}
	if comments[0].Body != "comment 1" {
		t.Errorf("comments[0].Body = %q, want %q", comments[0].Body, "comment 1")
	}
}

func TestGitHubProvider_GetChangedFiles_Paginates(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", `<`+server.URL+`/repos/owner/repo/pulls/42/files?page=2>; rel="next"`)
			json.NewEncoder(w).Encode([]map[string]interface{}{{"filename": "a.md"}})
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{{"filename": "b.md"}})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	files, err := p.GetChangedFiles(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetChangedFiles() error = %v", err)
	}
	if len(files) != 2 || files[1].Path != "b.md" {
		t.Errorf("GetChangedFiles() = %+v, want a.md and b.md", files)
	}
}

func TestGitHubProvider_ListFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/git/trees/main" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("recursive") == "" {
			t.Error("expected recursive tree request")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sha": "t1",
			"tree": []map[string]string{
				{"path": ".github", "type": "tree"},
				{"path": ".github/prompts/a.prompt.md", "type": "blob"},
				{"path": "README.md", "type": "blob"},
				{"path": "vendor/lib", "type": "commit"},
			},
			"truncated": false,
		})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	files, err := p.ListFiles(context.Background(), "owner", "repo", "main")
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}

	want := []string{".github/prompts/a.prompt.md", "README.md"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("ListFiles() = %v, want %v", files, want)
	}
}

func TestGitHubProvider_ListFiles_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"sha": "t1", "truncated": true})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	if _, err := p.ListFiles(context.Background(), "owner", "repo", "main"); err == nil {
		t.Error("ListFiles() expected error for truncated tree")
	}
}

func TestGitHubProvider_ReadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/contents/.github/copilint.yaml" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ref"); got != "feature" {
			t.Errorf("ref = %q, want %q", got, "feature")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"type":     "file",
			"encoding": "base64",
			"path":     ".github/copilint.yaml",
			"content":  base64.StdEncoding.EncodeToString([]byte("rules: {}\n")),
		})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	data, err := p.ReadFile(context.Background(), "owner", "repo", ".github/copilint.yaml", "feature")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "rules: {}\n" {
		t.Errorf("ReadFile() = %q", data)
	}
}

func TestGitHubProvider_ReadFile_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	_, err := p.ReadFile(context.Background(), "owner", "repo", "missing.md", "main")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile() error = %v, want fs.ErrNotExist", err)
	}
}

func TestGitHubProvider_SetCommitStatus(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/statuses/abc123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 1})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	err := p.SetCommitStatus(context.Background(), "owner", "repo", "abc123", provider.CommitStatus{
		State:       provider.StatusFailure,
		Context:     "copilint",
		Description: strings.Repeat("x", 200),
	})
	if err != nil {
		t.Fatalf("SetCommitStatus() error = %v", err)
	}

	if got["state"] != "failure" {
		t.Errorf("state = %q, want %q", got["state"], "failure")
	}
	if got["context"] != "copilint" {
		t.Errorf("context = %q, want %q", got["context"], "copilint")
	}
	if n := len([]rune(got["description"])); n != provider.MaxStatusDescription {
		t.Errorf("description length = %d, want %d", n, provider.MaxStatusDescription)
	}
	if _, ok := got["target_url"]; ok {
		t.Error("target_url should be omitted when empty")
	}
}
