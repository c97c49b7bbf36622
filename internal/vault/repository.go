package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"tunedex/internal/models"
	"tunedex/internal/shared"
)

// Repository reads and writes notes under a vault root, one folder per tier.
// All writes are atomic (temp file in the target directory, then rename) and
// skipped entirely when the rendered bytes match what is already on disk.
type Repository struct {
	cfg            shared.VaultConfig
	collisionLimit int
	logger         *log.Logger

	defaults Metadata

	// reserved holds paths handed out by Allocate whose first write may not
	// have happened yet, so two allocations never share a name.
	mu       sync.Mutex
	reserved map[string]struct{}
}

// NewRepository creates a repository over the configured vault root.
func NewRepository(cfg shared.VaultConfig, collisionLimit int, logger *log.Logger) *Repository {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if collisionLimit <= 0 {
		collisionLimit = 100
	}

	r := &Repository{
		cfg:            cfg,
		collisionLimit: collisionLimit,
		logger:         logger,
		reserved:       make(map[string]struct{}),
	}

	if cfg.DefaultFrontmatter != "" {
		if err := yaml.Unmarshal([]byte(cfg.DefaultFrontmatter), &r.defaults); err != nil {
			logger.Warn("default frontmatter is unparsable, ignoring it", "error", err)
			r.defaults = nil
		}
	}

	return r
}

// Root returns the vault root directory.
func (r *Repository) Root() string { return r.cfg.Root }

// EnsureDirs creates the tier folders, including the vault root.
func (r *Repository) EnsureDirs() error {
	for _, kind := range models.Kinds {
		dir := filepath.Join(r.cfg.Root, r.cfg.FolderFor(kind.Tier()))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: failed to create %s: %v", shared.ErrVaultWrite, dir, err)
		}
	}
	return nil
}

// ReadTier parses every note in a tier's folder. Malformed notes are logged
// and counted, never fatal; they are simply invisible to the pass.
func (r *Repository) ReadTier(kind models.Kind) (notes []*Note, flagged int, err error) {
	dir := filepath.Join(r.cfg.Root, r.cfg.FolderFor(kind.Tier()))

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		relPath, err := filepath.Rel(r.cfg.Root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if r.ignored(relPath) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		note, err := ParseNote(relPath, data)
		if err != nil {
			r.logger.Warn("skipping malformed note", "path", relPath, "error", err)
			flagged++
			return nil
		}

		notes = append(notes, note)
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, fs.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, flagged, fmt.Errorf("failed to read %s notes: %w", kind.Tier(), walkErr)
	}

	return notes, flagged, nil
}

func (r *Repository) ignored(relPath string) bool {
	for _, pattern := range r.cfg.IgnoreGlobs {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// Allocate reserves a path for a new note in a tier's folder, disambiguating
// filename collisions with a numeric suffix. The returned note starts from
// the configured default frontmatter and has not been written yet.
func (r *Repository) Allocate(kind models.Kind, title string) (*Note, error) {
	folder := r.cfg.FolderFor(kind.Tier())
	base := sanitizeFileName(title)

	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt <= r.collisionLimit; attempt++ {
		name := base
		if attempt > 0 {
			name = fmt.Sprintf("%s (%d)", base, attempt)
		}

		relPath := filepath.ToSlash(filepath.Join(folder, name+".md"))
		if _, taken := r.reserved[relPath]; taken {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.cfg.Root, relPath)); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", shared.ErrVaultWrite, err)
		}

		r.reserved[relPath] = struct{}{}
		note := NewNote(relPath)
		for k, v := range r.defaults {
			note.Metadata[k] = v
		}
		return note, nil
	}

	return nil, fmt.Errorf("%w: no free name for %q after %d attempts", shared.ErrNameCollision, title, r.collisionLimit)
}

// Write persists the note if its rendering differs from what is on disk,
// stamping the modified date only when an actual change is written. Returns
// whether a write happened.
func (r *Repository) Write(n *Note, now time.Time) (bool, error) {
	changed, err := n.Changed()
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	if len(n.Metadata) > 0 {
		n.Metadata[keyModified] = now.Format(dateLayout)
	}

	rendered, err := n.Render()
	if err != nil {
		return false, err
	}

	path := filepath.Join(r.cfg.Root, n.relPath)
	if err := writeFileAtomic(path, rendered, 0644); err != nil {
		return false, fmt.Errorf("%w: %s: %v", shared.ErrVaultWrite, n.relPath, err)
	}

	n.raw = rendered
	return true, nil
}

// writeFileAtomic writes through a temp file in the target directory followed
// by a rename, so readers never observe a half-written note.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".tunedex-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// sanitizeFileName strips characters that are unsafe in filenames and
// collapses the result to a usable base name.
func sanitizeFileName(title string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "",
		"<", "", ">", "", "|", "",
	)
	name := strings.TrimSpace(replacer.Replace(title))
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "Untitled"
	}
	return name
}
