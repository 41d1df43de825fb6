package bisect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/promptpit/pit/internal/config"
)

// StateFile is the session file name under the project state directory.
const StateFile = "bisect_state.json"

// StateStore persists the single project-wide session. Load returns
// (nil, nil) when no session exists.
type StateStore interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}

// FileStore keeps the session as a JSON file under .pit/.
type FileStore struct {
	path string
}

// NewFileStore returns a store rooted at the given project directory.
func NewFileStore(projectRoot string) *FileStore {
	return &FileStore{path: filepath.Join(projectRoot, config.PitDir, StateFile)}
}

// Load reads the session file. A missing or unreadable file means no
// session; a corrupted file is treated the same way so a damaged state
// file never wedges the tool.
func (f *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read bisect state: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil
	}
	if s.PromptName == "" && s.PromptID == "" {
		return nil, nil
	}
	return &s, nil
}

func (f *FileStore) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bisect state: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write bisect state: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear bisect state: %w", err)
	}
	return nil
}
