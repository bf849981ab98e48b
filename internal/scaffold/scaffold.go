// Package scaffold creates a starter set of Copilot customization files.
package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/drewdunne/copilint/internal/document"
)

//go:embed templates
var templates embed.FS

// ConfigFile is the name of the generated CLI configuration.
const ConfigFile = ".copilint.yaml"

// file maps an embedded template to its place in the repository.
type file struct {
	template string
	target   string
}

// files lists every template. Category templates live under a directory
// named after the last element of the category's directory.
func files() ([]file, error) {
	var out []file
	for _, c := range document.Categories() {
		dir := path.Join("templates", path.Base(c.Dir))
		entries, err := fs.ReadDir(templates, dir)
		if err != nil {
			return nil, fmt.Errorf("reading templates for %s: %w", c.Kind, err)
		}
		for _, e := range entries {
			out = append(out, file{
				template: path.Join(dir, e.Name()),
				target:   path.Join(c.Dir, e.Name()),
			})
		}
	}
	out = append(out, file{template: "templates/copilint.yaml", target: ConfigFile})
	return out, nil
}

// Init creates the category directories under root and writes the example
// files. Existing files are left alone unless force is set. It returns the
// slash-separated paths, relative to root, of the files written.
func Init(root string, force bool) ([]string, error) {
	list, err := files()
	if err != nil {
		return nil, err
	}

	for _, c := range document.Categories() {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(c.Dir)), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", c.Dir, err)
		}
	}

	var written []string
	for _, f := range list {
		dst := filepath.Join(root, filepath.FromSlash(f.target))
		if !force {
			if _, err := os.Stat(dst); err == nil {
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				return written, fmt.Errorf("checking %s: %w", f.target, err)
			}
		}

		data, err := templates.ReadFile(f.template)
		if err != nil {
			return written, fmt.Errorf("reading template %s: %w", f.template, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", f.target, err)
		}
		written = append(written, f.target)
	}
	return written, nil
}
