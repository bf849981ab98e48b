package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func TestLocal_List(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".github/prompts/b.prompt.md", "b")
	writeFile(t, root, ".github/prompts/a.prompt.md", "a")
	writeFile(t, root, ".github/prompts/nested/c.prompt.md", "c")

	src := NewLocal(root)
	files, err := src.List(context.Background(), ".github/prompts")

	require.NoError(t, err)
	assert.Equal(t, []string{".github/prompts/a.prompt.md", ".github/prompts/b.prompt.md"}, files)
}

func TestLocal_ListMissingDir(t *testing.T) {
	src := NewLocal(t.TempDir())

	_, err := src.List(context.Background(), ".github/chatmodes")

	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "error %v should match fs.ErrNotExist", err)
}

func TestLocal_FilesSkipsIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "r")
	writeFile(t, root, "docs/guide.md", "g")
	writeFile(t, root, ".git/HEAD", "ref")
	writeFile(t, root, "node_modules/pkg/README.md", "n")

	files, err := NewLocal(root).Files(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "docs/guide.md"}, files)
}

func TestLocal_FilesSkipsUnreadableDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, root, "README.md", "r")
	writeFile(t, root, "docs/private/secret.md", "s")
	writeFile(t, root, "docs/public.md", "p")
	private := filepath.Join(root, "docs", "private")
	require.NoError(t, os.Chmod(private, 0))
	t.Cleanup(func() { os.Chmod(private, 0o755) })

	files, err := NewLocal(root).Files(context.Background())

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.Contains(t, partial.Failed, "docs/private")
	assert.Equal(t, []string{"README.md", "docs/public.md"}, files)
}

func TestLocal_FilesMissingRoot(t *testing.T) {
	_, err := NewLocal(filepath.Join(t.TempDir(), "absent")).Files(context.Background())

	var partial *PartialError
	require.Error(t, err)
	assert.False(t, errors.As(err, &partial), "a missing root is not a partial walk")
	assert.True(t, errors.Is(err, fs.ErrNotExist), "error %v should match fs.ErrNotExist", err)
}

func TestLocal_ReadFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".github/chatmodes/x.chatmode.md", "hello")

	data, err := NewLocal(root).ReadFile(context.Background(), ".github/chatmodes/x.chatmode.md")

	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

type fakeTree struct {
	files     []string
	contents  map[string]string
	listCalls atomic.Int32
	readCalls atomic.Int32
}

func (f *fakeTree) ListFiles(ctx context.Context, owner, repo, ref string) ([]string, error) {
	f.listCalls.Add(1)
	return f.files, nil
}

func (f *fakeTree) ReadFile(ctx context.Context, owner, repo, p, ref string) ([]byte, error) {
	f.readCalls.Add(1)
	c, ok := f.contents[p]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(c), nil
}

func TestRemote_ListAndCache(t *testing.T) {
	tree := &fakeTree{
		files: []string{
			".github/prompts/z.prompt.md",
			".github/prompts/a.prompt.md",
			".github/prompts/sub/deep.prompt.md",
			"vendor/x/README.md",
			"README.md",
		},
		contents: map[string]string{".github/prompts/a.prompt.md": "a"},
	}
	src := NewRemote(tree, "owner", "repo", "main")
	ctx := context.Background()

	files, err := src.List(ctx, ".github/prompts")
	require.NoError(t, err)
	assert.Equal(t, []string{".github/prompts/a.prompt.md", ".github/prompts/z.prompt.md"}, files)

	all, err := src.Files(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all, "vendor/x/README.md")
	assert.Equal(t, int32(1), tree.listCalls.Load())

	for i := 0; i < 3; i++ {
		data, err := src.ReadFile(ctx, ".github/prompts/a.prompt.md")
		require.NoError(t, err)
		assert.Equal(t, "a", string(data))
	}
	assert.Equal(t, int32(1), tree.readCalls.Load())
	assert.Equal(t, "owner/repo@main", src.Name())
}

func TestRemote_ListMissingDir(t *testing.T) {
	src := NewRemote(&fakeTree{files: []string{"README.md"}}, "o", "r", "main")

	_, err := src.List(context.Background(), ".github/instructions")

	assert.True(t, errors.Is(err, fs.ErrNotExist), "error %v should match fs.ErrNotExist", err)
}

func TestParseRemote(t *testing.T) {
	tests := []struct {
		spec    string
		want    Target
		wantErr bool
	}{
		{spec: "github:owner/repo@main", want: Target{Provider: "github", Owner: "owner", Repo: "repo", Ref: "main"}},
		{spec: "github:owner/repo", want: Target{Provider: "github", Owner: "owner", Repo: "repo"}},
		{spec: "gitlab:group/sub/repo@v1.2", want: Target{Provider: "gitlab", Owner: "group/sub", Repo: "repo", Ref: "v1.2"}},
		{spec: "owner/repo", wantErr: true},
		{spec: "github:repo", wantErr: true},
		{spec: "github:owner/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseRemote(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIgnored(t *testing.T) {
	assert.True(t, Ignored(".git/config"))
	assert.True(t, Ignored("web/node_modules/a/README.md"))
	assert.False(t, Ignored(".github/prompts/a.prompt.md"))
}
