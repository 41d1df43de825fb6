package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Project.Name != "pit-project" {
		t.Errorf("expected default project name, got %q", cfg.Project.Name)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("expected default provider, got %q", cfg.LLM.Provider)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Project.Name = "my-prompts"
	cfg.Project.DefaultAuthor = "alice"
	cfg.LLM.Provider = "openai"
	cfg.LLM.BaseURL = "http://localhost:11434/v1"

	if err := Save(tmpDir, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Project.Name != "my-prompts" || loaded.Project.DefaultAuthor != "alice" {
		t.Errorf("project settings did not round-trip: %+v", loaded.Project)
	}
	if loaded.LLM.Provider != "openai" || loaded.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("llm settings did not round-trip: %+v", loaded.LLM)
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create nested dirs: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, PitDir), 0755); err != nil {
		t.Fatalf("failed to create .pit dir: %v", err)
	}

	root := FindProjectRoot(nested)
	if root != tmpDir {
		t.Errorf("expected root %q, got %q", tmpDir, root)
	}
}

func TestFindProjectRootMissing(t *testing.T) {
	if root := FindProjectRoot(t.TempDir()); root != "" {
		t.Errorf("expected empty root for uninitialized dir, got %q", root)
	}
}
