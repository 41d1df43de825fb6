// Package stash keeps a stack of work-in-progress prompt states outside
// the version history, so an edit can be parked and restored later.
package stash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/promptpit/pit/internal/config"
)

const (
	stashDirName = "stash"
	indexFile    = "index.json"
)

// Entry is one stashed prompt state. Index 0 is the bottom of the stack;
// new stashes push onto the end.
type Entry struct {
	Index      int    `json:"index"`
	PromptName string `json:"prompt_name"`
	PromptID   string `json:"prompt_id"`
	Content    string `json:"content"`
	Message    string `json:"message"`
	TestInput  string `json:"test_input,omitempty"`
	CreatedAt  string `json:"created_at"`
	Author     string `json:"author,omitempty"`
}

// ContentHash returns a short identifier for the stashed content.
func (e *Entry) ContentHash() string {
	sum := sha256.Sum256([]byte(e.Content))
	return hex.EncodeToString(sum[:])[:8]
}

// Manager stores stash entries as a JSON index plus one content file per
// entry under .pit/stash/.
type Manager struct {
	stashDir  string
	indexPath string
}

// NewManager returns a stash manager rooted at the project directory.
func NewManager(projectRoot string) *Manager {
	dir := filepath.Join(projectRoot, config.PitDir, stashDirName)
	return &Manager{
		stashDir:  dir,
		indexPath: filepath.Join(dir, indexFile),
	}
}

// List returns all entries in stack order.
func (m *Manager) List() ([]Entry, error) {
	data, err := os.ReadFile(m.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read stash index: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode stash index: %w", err)
	}

	// Content lives in per-entry files; the index copy is a fallback.
	for i := range entries {
		if content, err := os.ReadFile(m.contentPath(entries[i].Index)); err == nil {
			entries[i].Content = string(content)
		}
	}
	return entries, nil
}

// Push saves a new entry on top of the stack.
func (m *Manager) Push(promptName, promptID, content, message, testInput, author string) (*Entry, error) {
	entries, err := m.List()
	if err != nil {
		return nil, err
	}

	entry := Entry{
		Index:      len(entries),
		PromptName: promptName,
		PromptID:   promptID,
		Content:    content,
		Message:    message,
		TestInput:  testInput,
		CreatedAt:  time.Now().Format(time.RFC3339),
		Author:     author,
	}
	entries = append(entries, entry)

	if err := m.saveIndex(entries); err != nil {
		return nil, err
	}
	if err := os.WriteFile(m.contentPath(entry.Index), []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write stash content: %w", err)
	}
	return &entry, nil
}

// Show returns the entry at the given position without removing it, or
// nil when the position is out of range.
func (m *Manager) Show(index int) (*Entry, error) {
	entries, err := m.List()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(entries) {
		return nil, nil
	}
	entry := entries[index]
	return &entry, nil
}

// Pop removes and returns the entry at the given position, renumbering
// the remaining entries. Returns nil when the position is out of range.
func (m *Manager) Pop(index int) (*Entry, error) {
	entries, err := m.List()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(entries) {
		return nil, nil
	}

	popped := entries[index]
	entries = append(entries[:index], entries[index+1:]...)

	for i := range entries {
		oldIndex := entries[i].Index
		entries[i].Index = i
		if oldIndex != i {
			os.Rename(m.contentPath(oldIndex), m.contentPath(i))
		}
	}

	if err := m.saveIndex(entries); err != nil {
		return nil, err
	}
	os.Remove(m.contentPath(len(entries)))

	return &popped, nil
}

// Drop discards the entry at the given position. Reports whether an entry
// was removed.
func (m *Manager) Drop(index int) (bool, error) {
	entry, err := m.Pop(index)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// Clear removes every entry and returns how many were dropped.
func (m *Manager) Clear() (int, error) {
	entries, err := m.List()
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		os.Remove(m.contentPath(entry.Index))
	}
	if err := m.saveIndex(nil); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Count returns the stack depth.
func (m *Manager) Count() (int, error) {
	entries, err := m.List()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (m *Manager) saveIndex(entries []Entry) error {
	if err := os.MkdirAll(m.stashDir, 0755); err != nil {
		return fmt.Errorf("failed to create stash dir: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stash index: %w", err)
	}
	if err := os.WriteFile(m.indexPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write stash index: %w", err)
	}
	return nil
}

func (m *Manager) contentPath(index int) string {
	return filepath.Join(m.stashDir, fmt.Sprintf("stash_%d.md", index))
}
