package patch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/promptpit/pit/internal/store"
)

func testPatch() *Patch {
	gen := &Generator{Author: "alice"}
	oldV := &store.Version{VersionNumber: 1, Content: "You are a helpful assistant.\nBe concise.\n"}
	newV := &store.Version{
		VersionNumber: 2,
		Content:       "You are a helpful assistant.\nBe concise and formal.\n",
		SemanticDiff:  map[string]any{"summary": "tone shift"},
	}
	return gen.Generate("greeting", oldV, newV, "tighten tone")
}

func TestGenerate(t *testing.T) {
	p := testPatch()

	if p.Metadata.Format != FormatTag {
		t.Errorf("unexpected format %q", p.Metadata.Format)
	}
	if p.Metadata.SourcePrompt != "greeting" || p.Metadata.SourceVersions != [2]int{1, 2} {
		t.Errorf("unexpected metadata: %+v", p.Metadata)
	}
	if !strings.Contains(p.TextDiff, "--- v1") || !strings.Contains(p.TextDiff, "+++ v2") {
		t.Errorf("diff missing version labels:\n%s", p.TextDiff)
	}
	if !strings.Contains(p.TextDiff, "-Be concise.") || !strings.Contains(p.TextDiff, "+Be concise and formal.") {
		t.Errorf("diff missing change lines:\n%s", p.TextDiff)
	}
	if p.SemanticDiff["summary"] != "tone shift" {
		t.Errorf("semantic diff not carried: %v", p.SemanticDiff)
	}
}

func TestHashIsStable(t *testing.T) {
	p := testPatch()

	h := p.Hash()
	if len(h) != 12 {
		t.Fatalf("expected 12-char hash, got %q", h)
	}
	if h != p.Hash() {
		t.Error("hash not deterministic")
	}

	other := testPatch()
	other.Metadata.SourceVersions = [2]int{2, 3}
	if other.Hash() == h {
		t.Error("expected different hash for different version pair")
	}
}

func TestSaveAppendsExtensionAndLoadRoundTrips(t *testing.T) {
	p := testPatch()
	dir := t.TempDir()

	path, err := p.Save(filepath.Join(dir, "change"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Ext(path) != Extension {
		t.Errorf("expected %s extension, got %q", Extension, path)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.OldContent != p.OldContent || loaded.NewContent != p.NewContent {
		t.Error("loaded patch contents differ")
	}
	if loaded.Metadata.Author != "alice" || loaded.Metadata.Description != "tighten tone" {
		t.Errorf("loaded metadata differs: %+v", loaded.Metadata)
	}
}

func TestLoadToleratesMissingExtension(t *testing.T) {
	p := testPatch()
	bare := filepath.Join(t.TempDir(), "mypatch")

	if _, err := p.Save(bare); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(bare)
	if err != nil {
		t.Fatalf("Load without extension failed: %v", err)
	}
	if loaded.NewContent != p.NewContent {
		t.Error("loaded patch contents differ")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error when neither bare nor extended file exists")
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad"+Extension)
	if err := os.WriteFile(bad, []byte(`{"old_content": "x"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error loading incomplete patch file")
	}

	notJSON := filepath.Join(dir, "garbage"+Extension)
	if err := os.WriteFile(notJSON, []byte("not json at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(notJSON); err == nil {
		t.Error("expected error loading non-JSON patch file")
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	p := testPatch()
	p.Metadata.Format = "pit-patch-v99"

	path, err := p.Save(filepath.Join(t.TempDir(), "future"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown format tag")
	}
}

func TestCanApply(t *testing.T) {
	p := testPatch()

	if got := CanApply(p, p.OldContent); got != StatusClean {
		t.Errorf("expected clean, got %v", got)
	}
	if got := CanApply(p, p.NewContent); got != StatusAlreadyApplied {
		t.Errorf("expected already applied, got %v", got)
	}
	if got := CanApply(p, "something else entirely"); got != StatusBaseMismatch {
		t.Errorf("expected base mismatch, got %v", got)
	}
}

func TestApply(t *testing.T) {
	p := testPatch()

	got, err := Apply(p, p.OldContent)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got != p.NewContent {
		t.Error("Apply did not return new content")
	}

	if _, err := Apply(p, p.NewContent); err == nil {
		t.Error("expected error applying to already-patched content")
	}
	if _, err := Apply(p, "diverged"); err == nil {
		t.Error("expected error applying to mismatched base")
	}
}

func TestApplyFuzzy(t *testing.T) {
	p := testPatch()

	// Exact base applies directly.
	if got, ok := ApplyFuzzy(p, p.OldContent); !ok || got != p.NewContent {
		t.Error("expected exact base to apply")
	}

	// A small local edit keeps similarity above the threshold.
	nearBase := strings.Replace(p.OldContent, "helpful", "friendly", 1)
	if got, ok := ApplyFuzzy(p, nearBase); !ok || got != p.NewContent {
		t.Error("expected near-identical base to apply fuzzily")
	}

	// Unrelated content is rejected.
	if _, ok := ApplyFuzzy(p, "completely unrelated prompt about databases"); ok {
		t.Error("expected unrelated content to be rejected")
	}
}

func TestPreview(t *testing.T) {
	p := testPatch()

	clean := Preview(p, p.OldContent)
	if !strings.Contains(clean, "Can apply cleanly") || !strings.Contains(clean, "Be concise and formal.") {
		t.Errorf("unexpected clean preview: %q", clean)
	}

	blocked := Preview(p, "diverged")
	if !strings.Contains(blocked, "Cannot apply") {
		t.Errorf("unexpected blocked preview: %q", blocked)
	}
}
