package document

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	frontMatterDelimiter = "---"
	fenceMarker          = "```"
)

// Document is a parsed Markdown file with an optional front matter block.
type Document struct {
	Path string

	// HasFrontMatter is true when the first line is the delimiter.
	HasFrontMatter bool
	// Terminated is true when a closing delimiter was found.
	Terminated bool
	// Keys lists the top-level front matter keys in order of appearance.
	Keys []string
	// YAMLError is set when the front matter block is not valid YAML.
	// Keys are then collected line by line.
	YAMLError error

	// BodyLine is the 1-based line number where the body starts.
	BodyLine int

	lines []string
}

// Parse splits content into front matter and body. It never fails: problems
// are recorded on the returned Document for the caller to report.
func Parse(path string, content []byte) *Document {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	text := strings.TrimSuffix(string(normalized), "\n")
	doc := &Document{Path: path, BodyLine: 1}
	if text != "" {
		doc.lines = strings.Split(text, "\n")
	}

	if len(doc.lines) == 0 || doc.lines[0] != frontMatterDelimiter {
		return doc
	}
	doc.HasFrontMatter = true

	end := -1
	for i := 1; i < len(doc.lines); i++ {
		if doc.lines[i] == frontMatterDelimiter {
			end = i
			break
		}
	}
	if end < 0 {
		// Unterminated: treat everything after the opening line as the block.
		doc.Keys, doc.YAMLError = parseKeys(doc.lines[1:])
		doc.BodyLine = len(doc.lines) + 1
		return doc
	}
	doc.Terminated = true
	doc.Keys, doc.YAMLError = parseKeys(doc.lines[1:end])
	doc.BodyLine = end + 2
	return doc
}

// HasKey reports whether the front matter declares key.
func (d *Document) HasKey(key string) bool {
	for _, k := range d.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Lines returns the document lines without trailing newlines.
func (d *Document) Lines() []string {
	return d.lines
}

// Body returns the lines after the front matter block.
func (d *Document) Body() []string {
	start := d.BodyLine - 1
	if start >= len(d.lines) {
		return nil
	}
	return d.lines[start:]
}

// FenceCount returns the number of lines opening or closing a code fence.
func (d *Document) FenceCount() int {
	n := 0
	for _, line := range d.lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), fenceMarker) {
			n++
		}
	}
	return n
}

// FindInBody returns the 1-based line of the first body line containing
// token, or 0 when it does not occur.
func (d *Document) FindInBody(token string) int {
	for i, line := range d.Body() {
		if strings.Contains(line, token) {
			return d.BodyLine + i
		}
	}
	return 0
}

var lineKeyPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)\s*:`)

func parseKeys(block []string) ([]string, error) {
	var root yaml.Node
	err := yaml.Unmarshal([]byte(strings.Join(block, "\n")), &root)
	if err == nil {
		return mappingKeys(&root), nil
	}

	var keys []string
	for _, line := range block {
		if m := lineKeyPattern.FindStringSubmatch(line); m != nil {
			keys = append(keys, m[1])
		}
	}
	return keys, err
}

func mappingKeys(root *yaml.Node) []string {
	node := root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}
