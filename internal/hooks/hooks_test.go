package hooks

import (
	"context"
	"runtime"
	"strings"
	"testing"
)

func TestInstallGetUninstall(t *testing.T) {
	m := NewManager(t.TempDir())

	script, err := m.Install(PreCommit, "#!/bin/sh\nexit 0\n", true)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if !script.Executable {
		t.Error("expected installed hook to be executable")
	}

	loaded, err := m.Get(PreCommit)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded == nil || loaded.Content != "#!/bin/sh\nexit 0\n" {
		t.Fatalf("unexpected hook: %+v", loaded)
	}

	removed, err := m.Uninstall(PreCommit)
	if err != nil || !removed {
		t.Fatalf("Uninstall failed: %v, %v", removed, err)
	}
	if removed, _ := m.Uninstall(PreCommit); removed {
		t.Error("expected second uninstall to report nothing removed")
	}
	if loaded, _ := m.Get(PreCommit); loaded != nil {
		t.Errorf("expected hook gone, got %+v", loaded)
	}
}

func TestListCoversAllHookPoints(t *testing.T) {
	m := NewManager(t.TempDir())
	if _, err := m.Install(PostMerge, "#!/bin/sh\nexit 0\n", true); err != nil {
		t.Fatal(err)
	}

	hooks, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(hooks) != 6 {
		t.Fatalf("expected 6 hook points, got %d", len(hooks))
	}
	if hooks[PostMerge] == nil {
		t.Error("expected post-merge hook installed")
	}
	if hooks[PreCommit] != nil {
		t.Error("expected pre-commit hook absent")
	}
}

func TestRunMissingHookSucceeds(t *testing.T) {
	m := NewManager(t.TempDir())

	result := m.Run(context.Background(), PreCommit, nil)
	if !result.Success {
		t.Errorf("missing hook should succeed trivially: %+v", result)
	}
	if !strings.Contains(result.Message, "no pre-commit hook") {
		t.Errorf("unexpected message %q", result.Message)
	}
}

func TestRunPassesEnvironment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell hooks not supported on windows")
	}
	m := NewManager(t.TempDir())

	script := "#!/bin/sh\necho \"hook=$PIT_HOOK prompt=$PROMPT_NAME\"\n"
	if _, err := m.Install(PreCommit, script, true); err != nil {
		t.Fatal(err)
	}

	result := m.Run(context.Background(), PreCommit, map[string]string{"PROMPT_NAME": "greeting"})
	if !result.Success {
		t.Fatalf("hook run failed: %+v", result)
	}
	if !strings.Contains(result.Stdout, "hook=pre-commit prompt=greeting") {
		t.Errorf("unexpected stdout %q", result.Stdout)
	}
}

func TestRunReportsFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell hooks not supported on windows")
	}
	m := NewManager(t.TempDir())

	if _, err := m.Install(PreMerge, "#!/bin/sh\necho nope >&2\nexit 3\n", true); err != nil {
		t.Fatal(err)
	}

	result := m.Run(context.Background(), PreMerge, nil)
	if result.Success {
		t.Fatal("expected failure result")
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "nope") {
		t.Errorf("stderr not captured: %q", result.Stderr)
	}
}

func TestRunRejectsNonExecutableHook(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on windows")
	}
	m := NewManager(t.TempDir())

	if _, err := m.Install(PostCommit, "#!/bin/sh\nexit 0\n", false); err != nil {
		t.Fatal(err)
	}

	result := m.Run(context.Background(), PostCommit, nil)
	if result.Success {
		t.Fatal("expected non-executable hook to fail")
	}
	if !strings.Contains(result.Message, "not executable") {
		t.Errorf("unexpected message %q", result.Message)
	}
}

func TestSampleScript(t *testing.T) {
	s := SampleScript(PreCommit)
	if !strings.HasPrefix(s, "#!/bin/bash") || !strings.Contains(s, "pre-commit") {
		t.Errorf("unexpected sample script:\n%s", s)
	}
}
