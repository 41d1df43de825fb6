package textdiff

import (
	"strings"
	"testing"
)

func TestSimilarityIdentical(t *testing.T) {
	if got := Similarity("hello world", "hello world"); got != 1.0 {
		t.Errorf("expected 1.0 for identical strings, got %f", got)
	}
	if got := Similarity("", ""); got != 1.0 {
		t.Errorf("expected 1.0 for two empty strings, got %f", got)
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	got := Similarity("aaaa", "zzzz")
	if got > 0.1 {
		t.Errorf("expected near-zero similarity for disjoint strings, got %f", got)
	}
}

func TestSimilaritySmallEdit(t *testing.T) {
	got := Similarity("You are a helpful assistant.", "You are a helpful assistant!")
	if got < 0.9 {
		t.Errorf("expected high similarity for a one-char edit, got %f", got)
	}
}

func TestUnifiedIdentical(t *testing.T) {
	if diff := Unified("same\n", "same\n", "v1", "v2"); diff != "" {
		t.Errorf("expected empty diff for identical content, got %q", diff)
	}
}

func TestUnifiedLabelsAndMarkers(t *testing.T) {
	oldContent := "line one\nline two\nline three\n"
	newContent := "line one\nline 2\nline three\n"

	diff := Unified(oldContent, newContent, "v1", "v2")

	if !strings.HasPrefix(diff, "--- v1\n+++ v2\n") {
		t.Errorf("missing from/to header, got:\n%s", diff)
	}
	if !strings.Contains(diff, "-line two\n") {
		t.Errorf("missing deletion line, got:\n%s", diff)
	}
	if !strings.Contains(diff, "+line 2\n") {
		t.Errorf("missing addition line, got:\n%s", diff)
	}
	if !strings.Contains(diff, "@@ -1,3 +1,3 @@") {
		t.Errorf("unexpected hunk header, got:\n%s", diff)
	}
}

func TestUnifiedNoTrailingNewline(t *testing.T) {
	diff := Unified("alpha", "beta", "v1", "v2")
	if !strings.Contains(diff, "-alpha\n") || !strings.Contains(diff, "+beta\n") {
		t.Errorf("expected clean diff for content without trailing newline, got:\n%s", diff)
	}
}

func TestUnifiedSeparateHunks(t *testing.T) {
	var oldLines, newLines []string
	for i := 0; i < 20; i++ {
		oldLines = append(oldLines, "ctx")
		newLines = append(newLines, "ctx")
	}
	oldLines[0] = "first-old"
	newLines[0] = "first-new"
	oldLines[19] = "last-old"
	newLines[19] = "last-new"

	diff := Unified(strings.Join(oldLines, "\n")+"\n", strings.Join(newLines, "\n")+"\n", "v1", "v2")

	if got := strings.Count(diff, "@@ -"); got != 2 {
		t.Errorf("expected 2 hunks for changes 20 lines apart, got %d:\n%s", got, diff)
	}
}

func TestLineChanges(t *testing.T) {
	base := "keep\nremove me\nkeep too\n"
	branch := "keep\nadded line\nkeep too\n"

	added, removed := LineChanges(base, branch)

	if len(added) != 1 || added[0] != "added line" {
		t.Errorf("unexpected additions: %v", added)
	}
	if len(removed) != 1 || removed[0] != "remove me" {
		t.Errorf("unexpected removals: %v", removed)
	}
}

func TestLineChangesPureAddition(t *testing.T) {
	added, removed := LineChanges("base\n", "base\nnew tail\n")
	if len(removed) != 0 {
		t.Errorf("expected no removals, got %v", removed)
	}
	if len(added) != 1 || added[0] != "new tail" {
		t.Errorf("unexpected additions: %v", added)
	}
}
