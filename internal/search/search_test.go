package search

import (
	"testing"

	"github.com/promptpit/pit/internal/store"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexAndSearch(t *testing.T) {
	idx := openTestIndex(t)

	versions := []struct {
		promptName string
		v          store.Version
	}{
		{"greeting", store.Version{ID: "v1", VersionNumber: 1, Content: "You are a friendly concierge", Message: "initial"}},
		{"greeting", store.Version{ID: "v2", VersionNumber: 2, Content: "You are a formal concierge", Message: "tone change"}},
		{"summarizer", store.Version{ID: "v3", VersionNumber: 1, Content: "Summarize the document briefly", Message: "initial"}},
	}
	for _, entry := range versions {
		v := entry.v
		if err := idx.IndexVersion(entry.promptName, &v); err != nil {
			t.Fatalf("IndexVersion failed: %v", err)
		}
	}

	results, err := idx.Search("concierge", "", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", len(results), results)
	}
	for _, r := range results {
		if r.PromptName != "greeting" {
			t.Errorf("unexpected prompt in hit: %+v", r)
		}
	}

	results, err = idx.Search("initial", "summarizer", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].VersionID != "v3" {
		t.Errorf("prompt filter failed: %+v", results)
	}
}

func TestSearchMatchesTags(t *testing.T) {
	idx := openTestIndex(t)

	v := store.Version{ID: "v1", VersionNumber: 1, Content: "content", Message: "msg", Tags: []string{"production", "baseline"}}
	if err := idx.IndexVersion("greeting", &v); err != nil {
		t.Fatalf("IndexVersion failed: %v", err)
	}

	results, err := idx.Search("production", "", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected tag match, got %+v", results)
	}
}

func TestDeletePrompt(t *testing.T) {
	idx := openTestIndex(t)

	v := store.Version{ID: "v1", VersionNumber: 1, Content: "disposable content"}
	if err := idx.IndexVersion("temp", &v); err != nil {
		t.Fatalf("IndexVersion failed: %v", err)
	}
	if err := idx.DeletePrompt([]string{"v1"}); err != nil {
		t.Fatalf("DeletePrompt failed: %v", err)
	}

	results, err := idx.Search("disposable", "", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no hits after delete, got %+v", results)
	}
}
