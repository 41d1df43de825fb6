// Package hooks implements git-style lifecycle hooks: executable scripts
// under .pit/hooks/ that run around commit, checkout and merge operations.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/promptpit/pit/internal/config"
)

// Type names a hook point.
type Type string

const (
	PreCommit    Type = "pre-commit"
	PostCommit   Type = "post-commit"
	PreCheckout  Type = "pre-checkout"
	PostCheckout Type = "post-checkout"
	PreMerge     Type = "pre-merge"
	PostMerge    Type = "post-merge"
)

// All lists every supported hook point.
func All() []Type {
	return []Type{PreCommit, PostCommit, PreCheckout, PostCheckout, PreMerge, PostMerge}
}

// DefaultTimeout bounds hook execution.
const DefaultTimeout = 30 * time.Second

// Script is an installed hook.
type Script struct {
	Type       Type
	Path       string
	Content    string
	ModTime    time.Time
	Executable bool
}

// Result is the outcome of running one hook.
type Result struct {
	Success  bool
	Type     Type
	Stdout   string
	Stderr   string
	ExitCode int
	Message  string
}

// Manager installs and runs hook scripts for one project.
type Manager struct {
	projectRoot string
	hooksDir    string
}

// NewManager returns a hook manager rooted at the project directory.
func NewManager(projectRoot string) *Manager {
	return &Manager{
		projectRoot: projectRoot,
		hooksDir:    filepath.Join(projectRoot, config.PitDir, "hooks"),
	}
}

func (m *Manager) hookPath(t Type) string {
	return filepath.Join(m.hooksDir, string(t))
}

// List reports every hook point with its installed script, nil when none.
func (m *Manager) List() (map[Type]*Script, error) {
	result := make(map[Type]*Script, len(All()))
	for _, t := range All() {
		script, err := m.Get(t)
		if err != nil {
			return nil, err
		}
		result[t] = script
	}
	return result, nil
}

// Get loads one hook, or nil when not installed.
func (m *Manager) Get(t Type) (*Script, error) {
	path := m.hookPath(t)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat hook %s: %w", t, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hook %s: %w", t, err)
	}

	return &Script{
		Type:       t,
		Path:       path,
		Content:    string(content),
		ModTime:    info.ModTime(),
		Executable: info.Mode()&0100 != 0,
	}, nil
}

// Install writes a hook script, marking it executable by default.
func (m *Manager) Install(t Type, content string, makeExecutable bool) (*Script, error) {
	if err := os.MkdirAll(m.hooksDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create hooks dir: %w", err)
	}

	mode := os.FileMode(0644)
	if makeExecutable {
		mode = 0755
	}
	if err := os.WriteFile(m.hookPath(t), []byte(content), mode); err != nil {
		return nil, fmt.Errorf("failed to write hook %s: %w", t, err)
	}
	return m.Get(t)
}

// InstallFromFile installs a hook from an existing script file.
func (m *Manager) InstallFromFile(t Type, sourcePath string) (*Script, error) {
	content, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read hook source: %w", err)
	}
	return m.Install(t, string(content), true)
}

// Uninstall removes a hook. Reports whether one was installed.
func (m *Manager) Uninstall(t Type) (bool, error) {
	err := os.Remove(m.hookPath(t))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove hook %s: %w", t, err)
	}
	return true, nil
}

// Run executes a hook with the given extra environment. A missing hook
// succeeds trivially; a non-executable one fails without running.
func (m *Manager) Run(ctx context.Context, t Type, env map[string]string) Result {
	script, err := m.Get(t)
	if err != nil {
		return Result{Type: t, ExitCode: 1, Message: fmt.Sprintf("error loading hook: %v", err)}
	}
	if script == nil {
		return Result{Success: true, Type: t, Message: fmt.Sprintf("no %s hook installed", t)}
	}
	if !script.Executable {
		return Result{Type: t, ExitCode: 1, Message: fmt.Sprintf("hook %s is not executable", t)}
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, script.Path)
	cmd.Dir = m.projectRoot
	cmd.Env = append(os.Environ(),
		"PIT_HOOK="+string(t),
		"PIT_PROJECT_ROOT="+m.projectRoot,
	)
	for key, value := range env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	result := Result{
		Type:   t,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if ctx.Err() == context.DeadlineExceeded {
		result.ExitCode = 1
		result.Message = fmt.Sprintf("hook %s timed out after %s", t, DefaultTimeout)
		return result
	}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			result.Message = fmt.Sprintf("hook failed with exit code %d", result.ExitCode)
		} else {
			result.ExitCode = 1
			result.Message = fmt.Sprintf("error running hook: %v", runErr)
		}
		return result
	}

	result.Success = true
	result.Message = "hook executed successfully"
	return result
}

// SampleScript returns a starter script for a hook point.
func SampleScript(t Type) string {
	return fmt.Sprintf(`#!/bin/bash
# %s hook
# Environment variables:
#   PIT_HOOK - the hook point being run
#   PIT_PROJECT_ROOT - project root directory
#   PROMPT_NAME - name of the prompt involved, when applicable

echo "running %s hook for $PROMPT_NAME"
`, t, t)
}
