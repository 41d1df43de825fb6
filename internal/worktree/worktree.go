// Package worktree manages independent checkouts of a prompt: separate
// directories each holding one prompt's content file, tracked in a
// project-wide registry.
package worktree

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/promptpit/pit/internal/config"
)

const (
	// RegistryFile tracks all worktrees under .pit/.
	RegistryFile = "worktrees.json"
	// MarkerFile identifies a directory as a pit worktree.
	MarkerFile = ".pit-worktree"
)

// Worktree is one independent checkout. CheckedOutVersion 0 means the
// prompt's current version.
type Worktree struct {
	Path              string `json:"path"`
	PromptName        string `json:"prompt_name"`
	PromptID          string `json:"prompt_id"`
	CheckedOutVersion int    `json:"checked_out_version,omitempty"`
	CreatedAt         string `json:"created_at"`
	LastUsed          string `json:"last_used,omitempty"`
}

// ContentPath returns where the prompt content lives inside the worktree.
func (w *Worktree) ContentPath() string {
	return filepath.Join(w.Path, w.PromptName+".md")
}

// Manager tracks worktrees in a JSON registry keyed by absolute path.
type Manager struct {
	projectRoot  string
	registryPath string
}

// NewManager returns a worktree manager rooted at the project directory.
func NewManager(projectRoot string) *Manager {
	return &Manager{
		projectRoot:  projectRoot,
		registryPath: filepath.Join(projectRoot, config.PitDir, RegistryFile),
	}
}

func (m *Manager) loadRegistry() (map[string]*Worktree, error) {
	data, err := os.ReadFile(m.registryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*Worktree{}, nil
		}
		return nil, fmt.Errorf("failed to read worktree registry: %w", err)
	}

	registry := map[string]*Worktree{}
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to decode worktree registry: %w", err)
	}
	return registry, nil
}

func (m *Manager) saveRegistry(registry map[string]*Worktree) error {
	if err := os.MkdirAll(filepath.Dir(m.registryPath), 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode worktree registry: %w", err)
	}
	if err := os.WriteFile(m.registryPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write worktree registry: %w", err)
	}
	return nil
}

func registryKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve worktree path: %w", err)
	}
	return abs, nil
}

func writeMarker(w *Worktree) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode worktree marker: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.Path, MarkerFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write worktree marker: %w", err)
	}
	return nil
}

func readMarker(path string) *Worktree {
	data, err := os.ReadFile(filepath.Join(path, MarkerFile))
	if err != nil {
		return nil
	}
	var w Worktree
	if err := json.Unmarshal(data, &w); err != nil {
		return nil
	}
	return &w
}

// Create makes a new worktree directory, writes its marker, checks out the
// given content, and registers it. The path must not already exist.
func (m *Manager) Create(path, promptName, promptID, content string, version int) (*Worktree, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("path already exists: %s", path)
	}

	key, err := registryKey(path)
	if err != nil {
		return nil, err
	}
	registry, err := m.loadRegistry()
	if err != nil {
		return nil, err
	}
	if _, exists := registry[key]; exists {
		return nil, fmt.Errorf("worktree already exists at %s", path)
	}

	if err := os.MkdirAll(key, 0755); err != nil {
		return nil, fmt.Errorf("failed to create worktree dir: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	w := &Worktree{
		Path:              key,
		PromptName:        promptName,
		PromptID:          promptID,
		CheckedOutVersion: version,
		CreatedAt:         now,
		LastUsed:          now,
	}

	if err := writeMarker(w); err != nil {
		return nil, err
	}
	if err := os.WriteFile(w.ContentPath(), []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write worktree content: %w", err)
	}

	registry[key] = w
	if err := m.saveRegistry(registry); err != nil {
		return nil, err
	}
	return w, nil
}

// List returns all registered worktrees whose directories still exist.
func (m *Manager) List() ([]*Worktree, error) {
	registry, err := m.loadRegistry()
	if err != nil {
		return nil, err
	}

	var active []*Worktree
	for _, w := range registry {
		if _, err := os.Stat(w.Path); err == nil {
			active = append(active, w)
		}
	}
	return active, nil
}

// Get returns the tracked worktree at a path, or nil.
func (m *Manager) Get(path string) (*Worktree, error) {
	key, err := registryKey(path)
	if err != nil {
		return nil, err
	}
	registry, err := m.loadRegistry()
	if err != nil {
		return nil, err
	}
	return registry[key], nil
}

// Remove deletes a worktree directory and unregisters it. Without force,
// a directory holding anything beyond the marker and the checked-out
// content file is refused.
func (m *Manager) Remove(path string, force bool) error {
	key, err := registryKey(path)
	if err != nil {
		return err
	}
	registry, err := m.loadRegistry()
	if err != nil {
		return err
	}

	w, tracked := registry[key]
	if !tracked {
		if w = readMarker(key); w == nil {
			return fmt.Errorf("not a pit worktree: %s", path)
		}
	}

	if _, err := os.Stat(key); err == nil {
		if !force {
			if err := ensureRemovable(w); err != nil {
				return err
			}
		}
		if err := os.RemoveAll(key); err != nil {
			return fmt.Errorf("failed to remove worktree dir: %w", err)
		}
	}

	delete(registry, key)
	return m.saveRegistry(registry)
}

// ensureRemovable rejects directories holding more than the marker and the
// prompt content file.
func ensureRemovable(w *Worktree) error {
	entries, err := os.ReadDir(w.Path)
	if err != nil {
		return fmt.Errorf("failed to inspect worktree dir: %w", err)
	}
	for _, entry := range entries {
		if entry.Name() == MarkerFile || entry.Name() == filepath.Base(w.ContentPath()) {
			continue
		}
		return fmt.Errorf("worktree is not empty; use --force to remove anyway: %s", w.Path)
	}
	return nil
}

// UpdateVersion records a new checked-out version for a worktree and
// refreshes its last-used timestamp.
func (m *Manager) UpdateVersion(path string, version int) (*Worktree, error) {
	key, err := registryKey(path)
	if err != nil {
		return nil, err
	}
	registry, err := m.loadRegistry()
	if err != nil {
		return nil, err
	}

	w, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("not a tracked worktree: %s", path)
	}

	w.CheckedOutVersion = version
	w.LastUsed = time.Now().Format(time.RFC3339)
	if err := writeMarker(w); err != nil {
		return nil, err
	}
	if err := m.saveRegistry(registry); err != nil {
		return nil, err
	}
	return w, nil
}

// PruneStale removes worktrees unused for longer than maxAge, returning
// the removed records.
func (m *Manager) PruneStale(maxAge time.Duration) ([]*Worktree, error) {
	registry, err := m.loadRegistry()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed []*Worktree
	for key, w := range registry {
		stamp := w.LastUsed
		if stamp == "" {
			stamp = w.CreatedAt
		}
		lastUsed, err := time.Parse(time.RFC3339, stamp)
		if err != nil || !lastUsed.Before(cutoff) {
			continue
		}
		os.RemoveAll(w.Path)
		delete(registry, key)
		removed = append(removed, w)
	}

	if len(removed) > 0 {
		if err := m.saveRegistry(registry); err != nil {
			return nil, err
		}
	}
	return removed, nil
}

// IsWorktree reports whether a directory carries the worktree marker.
func IsWorktree(path string) bool {
	_, err := os.Stat(filepath.Join(path, MarkerFile))
	return err == nil
}
