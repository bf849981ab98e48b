package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	goodInstruction = "---\napplyTo: \"**/*.go\"\ndescription: Go style\n---\n# Go\n"
	goodPrompt      = "---\nmode: agent\ndescription: Review\ntools: [search]\n---\nReview.\n"
	goodChatmode    = "---\ndescription: Planner\ntools: [search]\n---\nPlan.\n"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"instructions", "prompts", "chatmodes"} {
		if err := os.MkdirAll(filepath.Join(root, ".github", dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for p, content := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func conformant() map[string]string {
	return map[string]string{
		".github/instructions/go.instructions.md": goodInstruction,
		".github/prompts/review.prompt.md":        goodPrompt,
		".github/chatmodes/planner.chatmode.md":   goodChatmode,
	}
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_ExitCodes(t *testing.T) {
	broken := conformant()
	broken[".github/prompts/review.prompt.md"] = "---\ndescription: Review\n---\n"

	tests := []struct {
		name     string
		files    map[string]string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"conformant", conformant(), nil, exitOK, "All checks passed (3 file(s), 0 warning(s))"},
		{"missing field", broken, nil, exitFailed, "missing 'tools' field"},
		{"deprecated url", map[string]string{"README.md": "see blob/main/docs"}, nil, exitFailed, "blob/main"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeTree(t, tt.files)
			args := append([]string{"validate", root}, tt.args...)
			code, out, errOut := runCLI(t, args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, errOut)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output missing %q:\n%s", tt.wantOut, out)
			}
		})
	}
}

func TestRun_MissingDirectoryIsEnvironmentError(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".github", "instructions"), 0o755); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := runCLI(t, "validate", root)
	if code != exitEnvironment {
		t.Errorf("exit code = %d, want %d", code, exitEnvironment)
	}
	if out != "" {
		t.Errorf("environment error printed a report:\n%s", out)
	}
	if !strings.Contains(errOut, ".github/prompts") {
		t.Errorf("stderr does not name the missing directory: %s", errOut)
	}
}

func TestRun_FailOnWarnings(t *testing.T) {
	files := conformant()
	files[".github/instructions/go.instructions.md"] = goodInstruction + "Target {Language} projects.\n"
	root := writeTree(t, files)

	if code, _, _ := runCLI(t, "validate", root); code != exitOK {
		t.Errorf("warnings alone: exit code = %d, want %d", code, exitOK)
	}
	code, out, _ := runCLI(t, "validate", root, "--fail-on-warnings")
	if code != exitFailed {
		t.Errorf("--fail-on-warnings: exit code = %d, want %d", code, exitFailed)
	}
	if !strings.Contains(out, "fail_on_warnings is set") {
		t.Errorf("output does not explain the failure:\n%s", out)
	}
}

func TestRun_JSONFormat(t *testing.T) {
	root := writeTree(t, conformant())

	code, out, _ := runCLI(t, "validate", root, "--format", "json")
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	var doc struct {
		Files   []json.RawMessage `json:"files"`
		Summary struct {
			Passed bool `json:"passed"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(doc.Files) != 3 || !doc.Summary.Passed {
		t.Errorf("unexpected JSON report: %s", out)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	root := writeTree(t, conformant())
	cfgPath := filepath.Join(t.TempDir(), "copilint.yaml")
	cfg := "rules:\n  extra_required:\n    prompt: [model]\nreport:\n  format: markdown\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, _ := runCLI(t, "validate", root, "--config", cfgPath)
	if code != exitFailed {
		t.Errorf("exit code = %d, want %d", code, exitFailed)
	}
	if !strings.Contains(out, "missing 'model' field") {
		t.Errorf("extra required field not enforced:\n%s", out)
	}
	if !strings.HasPrefix(out, "<!-- copilint-report -->") {
		t.Errorf("configured markdown format not used:\n%s", out)
	}
}

func TestRun_BadInput(t *testing.T) {
	root := writeTree(t, conformant())

	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"validate", root, "--format", "yaml"}},
		{"missing explicit config", []string{"validate", root, "--config", filepath.Join(root, "nope.yaml")}},
		{"unknown flag", []string{"validate", "--bogus"}},
		{"path and remote", []string{"validate", root, "--remote", "github:acme/app"}},
		{"unknown provider", []string{"validate", "--remote", "bitbucket:acme/app@main"}},
		{"negative workers", []string{"validate", root, "--workers", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			if code != exitEnvironment {
				t.Errorf("exit code = %d, want %d", code, exitEnvironment)
			}
			if !strings.HasPrefix(errOut, "Error: ") {
				t.Errorf("stderr = %q, want an error message", errOut)
			}
		})
	}
}

func TestRun_InitThenValidate(t *testing.T) {
	root := t.TempDir()

	code, out, _ := runCLI(t, "init", root)
	if code != exitOK {
		t.Fatalf("init exit code = %d", code)
	}
	if strings.Count(out, "created ") != 4 {
		t.Errorf("init output:\n%s", out)
	}

	code, out, _ = runCLI(t, "init", root)
	if code != exitOK || !strings.Contains(out, "already exist") {
		t.Errorf("second init: code %d, output %q", code, out)
	}

	code, out, errOut := runCLI(t, "validate", root, "--config", filepath.Join(root, ".copilint.yaml"))
	if code != exitOK {
		t.Errorf("validate after init: exit code = %d\n%s%s", code, out, errOut)
	}
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	if code != exitOK || !strings.Contains(out, "copilint v"+version) {
		t.Errorf("version: code %d, output %q", code, out)
	}
}

func TestRun_Remote(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	files := conformant()
	files[".github/prompts/review.prompt.md"] = "---\nmode: agent\ndescription: Review\n---\n"

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/repos/acme/app":
			json.NewEncoder(w).Encode(map[string]interface{}{"name": "app", "default_branch": "trunk"})
		case r.URL.Path == "/repos/acme/app/git/trees/trunk":
			var tree []map[string]string
			for p := range files {
				tree = append(tree, map[string]string{"path": p, "type": "blob"})
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"sha": "t", "tree": tree})
		case strings.HasPrefix(r.URL.Path, "/repos/acme/app/contents/"):
			p := strings.TrimPrefix(r.URL.Path, "/repos/acme/app/contents/")
			content, ok := files[p]
			if !ok || r.URL.Query().Get("ref") != "trunk" {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"type":     "file",
				"encoding": "base64",
				"path":     p,
				"content":  base64.StdEncoding.EncodeToString([]byte(content)),
			})
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer api.Close()

	cfgPath := filepath.Join(t.TempDir(), "copilint.yaml")
	if err := os.WriteFile(cfgPath, []byte("providers:\n  github:\n    base_url: "+api.URL+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := runCLI(t, "validate", "--config", cfgPath, "--remote", "github:acme/app")
	if code != exitFailed {
		t.Errorf("exit code = %d, want %d (stderr: %s)", code, exitFailed, errOut)
	}
	if !strings.Contains(out, "acme/app@trunk") {
		t.Errorf("report does not name the remote source:\n%s", out)
	}
	if !strings.Contains(out, "missing 'tools' field") {
		t.Errorf("remote file not validated:\n%s", out)
	}
}
