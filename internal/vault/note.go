package vault

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"tunedex/internal/shared"
)

// Metadata is the flexible frontmatter map. Keys not owned by the catalog
// schema belong to the user and survive every rewrite.
type Metadata map[string]any

// Note is a markdown file with YAML frontmatter, addressed by its
// vault-relative path.
type Note struct {
	Metadata Metadata
	Content  string

	relPath string
	raw     []byte // bytes as last read or written, for change detection
}

// NewNote creates an empty note at the given vault-relative path.
func NewNote(relPath string) *Note {
	return &Note{Metadata: make(Metadata), relPath: relPath}
}

// Path returns the vault-relative path, including the .md extension.
func (n *Note) Path() string { return n.relPath }

// Name returns the filename without extension.
func (n *Note) Name() string {
	return strings.TrimSuffix(filepath.Base(n.relPath), ".md")
}

// LinkTarget returns the vault-relative path without extension, the form
// embedded in wiki links.
func (n *Note) LinkTarget() string {
	return strings.TrimSuffix(n.relPath, ".md")
}

// ParseNote decodes a note from its on-disk bytes. A file without a leading
// frontmatter fence is all content. A fence that opens but never closes, or
// unparsable YAML between the fences, is malformed.
func ParseNote(relPath string, data []byte) (*Note, error) {
	n := NewNote(relPath)
	n.raw = data

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		n.Content = string(data)
		return n, nil
	}

	rest := data[3:]
	parts := bytes.SplitN(rest, []byte("\n---"), 2)
	if len(parts) == 1 {
		return nil, fmt.Errorf("%w: %s: frontmatter fence never closes", shared.ErrNoteMalformed, relPath)
	}

	if err := yaml.Unmarshal(parts[0], &n.Metadata); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrNoteMalformed, relPath, err)
	}
	if n.Metadata == nil {
		n.Metadata = make(Metadata)
	}

	content := strings.TrimPrefix(string(parts[1]), "\n")
	n.Content = strings.TrimPrefix(content, "\r\n")
	return n, nil
}

// Render serializes the note to its on-disk form. Map keys encode in sorted
// order, so rendering is deterministic and a parse/render round trip of an
// unchanged note is byte-identical.
func (n *Note) Render() ([]byte, error) {
	var buf bytes.Buffer

	if len(n.Metadata) > 0 {
		buf.WriteString("---\n")
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(n.Metadata); err != nil {
			return nil, fmt.Errorf("failed to encode frontmatter for %s: %w", n.relPath, err)
		}
		encoder.Close()
		buf.WriteString("---\n")
	}

	buf.WriteString(n.Content)
	return buf.Bytes(), nil
}

// Changed reports whether the note's current rendering differs from the bytes
// last read from or written to disk.
func (n *Note) Changed() (bool, error) {
	rendered, err := n.Render()
	if err != nil {
		return false, err
	}
	return !bytes.Equal(rendered, n.raw), nil
}
