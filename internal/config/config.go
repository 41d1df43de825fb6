// Package config handles project discovery and the .pit.yaml configuration
// file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// PitDir is the per-project state directory.
	PitDir = ".pit"
	// ConfigFile is the name of the project configuration file.
	ConfigFile = ".pit.yaml"
)

// ProjectConfig holds project-level settings.
type ProjectConfig struct {
	Name          string `yaml:"name"`
	DefaultAuthor string `yaml:"default_author,omitempty"`
}

// LLMConfig selects the provider used for semantic diff narration.
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// APIKey resolves the provider API key from the environment.
func (c LLMConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// Config is the full project configuration.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	LLM     LLMConfig     `yaml:"llm"`
}

// Default returns the configuration used when no .pit.yaml exists.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{Name: "pit-project"},
		LLM: LLMConfig{
			Provider:  "anthropic",
			Model:     "claude-sonnet-4-20250514",
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
	}
}

// Load reads the configuration from projectRoot/.pit.yaml.
// Returns defaults and no error if the file does not exist.
func Load(projectRoot string) (*Config, error) {
	path := filepath.Join(projectRoot, ConfigFile)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to projectRoot/.pit.yaml.
func Save(projectRoot string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(projectRoot, ConfigFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsInitialized reports whether a .pit directory exists under projectRoot.
func IsInitialized(projectRoot string) bool {
	info, err := os.Stat(filepath.Join(projectRoot, PitDir))
	return err == nil && info.IsDir()
}

// FindProjectRoot walks up from startPath until it finds a directory
// containing .pit. Returns an empty string if no project is found.
func FindProjectRoot(startPath string) string {
	current, err := filepath.Abs(startPath)
	if err != nil {
		return ""
	}

	for {
		if IsInitialized(current) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// StateDir returns the .pit directory for a project, creating it if needed.
func StateDir(projectRoot string) (string, error) {
	dir := filepath.Join(projectRoot, PitDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}

// DefaultTemplate is the commented starter .pit.yaml written by `pit init`.
const DefaultTemplate = `# pit configuration
project:
  name: my-prompts
  # default_author: you@example.com

llm:
  # provider: anthropic, openai or an openai-compatible endpoint
  provider: anthropic
  model: claude-sonnet-4-20250514
  api_key_env: ANTHROPIC_API_KEY
  # base_url: http://localhost:11434/v1
`
