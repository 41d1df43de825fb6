package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, filepath.Join(t.TempDir(), "pit.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetPrompt(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created, err := s.CreatePrompt(ctx, "greeting", "a greeting prompt")
	if err != nil {
		t.Fatalf("CreatePrompt failed: %v", err)
	}

	got, err := s.GetPromptByName(ctx, "greeting")
	if err != nil {
		t.Fatalf("GetPromptByName failed: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("expected prompt %q, got %+v", created.ID, got)
	}
	if got.Description != "a greeting prompt" {
		t.Errorf("unexpected description %q", got.Description)
	}

	missing, err := s.GetPromptByName(ctx, "nope")
	if err != nil {
		t.Fatalf("GetPromptByName failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing prompt, got %+v", missing)
	}
}

func TestDuplicatePromptNameFails(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.CreatePrompt(ctx, "dup", ""); err != nil {
		t.Fatalf("CreatePrompt failed: %v", err)
	}
	if _, err := s.CreatePrompt(ctx, "dup", ""); err == nil {
		t.Error("expected error creating duplicate prompt name")
	}
}

func TestVersionNumbersAreContiguous(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := s.CreatePrompt(ctx, "seq", "")
	if err != nil {
		t.Fatalf("CreatePrompt failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := s.AppendVersion(ctx, p.ID, "content", "msg", "", nil); err != nil {
			t.Fatalf("AppendVersion failed: %v", err)
		}
	}

	versions, err := s.ListVersions(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(versions) != 5 {
		t.Fatalf("expected 5 versions, got %d", len(versions))
	}
	for i, v := range versions {
		if v.VersionNumber != i+1 {
			t.Errorf("expected version number %d at position %d, got %d", i+1, i, v.VersionNumber)
		}
	}
}

func TestAppendVersionUpdatesCurrentPointer(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := s.CreatePrompt(ctx, "ptr", "")
	if err != nil {
		t.Fatalf("CreatePrompt failed: %v", err)
	}

	v1, err := s.AppendVersion(ctx, p.ID, "one", "first", "alice", []string{"baseline"})
	if err != nil {
		t.Fatalf("AppendVersion failed: %v", err)
	}
	v2, err := s.AppendVersion(ctx, p.ID, "two", "second", "", nil)
	if err != nil {
		t.Fatalf("AppendVersion failed: %v", err)
	}

	reloaded, err := s.GetPromptByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPromptByID failed: %v", err)
	}
	if reloaded.CurrentVersionID != v2.ID {
		t.Errorf("expected current version %q, got %q", v2.ID, reloaded.CurrentVersionID)
	}
	if v2.ParentVersionID != v1.ID {
		t.Errorf("expected parent %q, got %q", v1.ID, v2.ParentVersionID)
	}
}

func TestVariableExtraction(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := s.CreatePrompt(ctx, "vars", "")
	if err != nil {
		t.Fatalf("CreatePrompt failed: %v", err)
	}

	v, err := s.AppendVersion(ctx, p.ID, "Hello {{name}}, you are {{ role }}. Bye {{name}}.", "msg", "", nil)
	if err != nil {
		t.Fatalf("AppendVersion failed: %v", err)
	}

	if len(v.Variables) != 2 || v.Variables[0] != "name" || v.Variables[1] != "role" {
		t.Errorf("unexpected variables: %v", v.Variables)
	}
}

func TestTagsAndSemanticDiffRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := s.CreatePrompt(ctx, "annotated", "")
	if err != nil {
		t.Fatalf("CreatePrompt failed: %v", err)
	}
	v, err := s.AppendVersion(ctx, p.ID, "content", "msg", "", nil)
	if err != nil {
		t.Fatalf("AppendVersion failed: %v", err)
	}

	if err := s.AddTag(ctx, v, "stable"); err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}
	if err := s.AddTag(ctx, v, "stable"); err != nil {
		t.Fatalf("AddTag (duplicate) failed: %v", err)
	}
	if err := s.SetSemanticDiff(ctx, v, map[string]any{"summary": "initial"}); err != nil {
		t.Fatalf("SetSemanticDiff failed: %v", err)
	}

	got, err := s.GetVersion(ctx, p.ID, 1)
	if err != nil {
		t.Fatalf("GetVersion failed: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "stable" {
		t.Errorf("unexpected tags: %v", got.Tags)
	}
	if got.SemanticDiff["summary"] != "initial" {
		t.Errorf("unexpected semantic diff: %v", got.SemanticDiff)
	}
}

func TestRecordMetricsRollingAverage(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := s.CreatePrompt(ctx, "metrics", "")
	if err != nil {
		t.Fatalf("CreatePrompt failed: %v", err)
	}
	v, err := s.AppendVersion(ctx, p.ID, "content", "msg", "", nil)
	if err != nil {
		t.Fatalf("AppendVersion failed: %v", err)
	}

	latency1, latency2 := 100.0, 300.0
	if err := s.RecordMetrics(ctx, v, MetricsSample{LatencyMs: &latency1, Success: true}); err != nil {
		t.Fatalf("RecordMetrics failed: %v", err)
	}
	if err := s.RecordMetrics(ctx, v, MetricsSample{LatencyMs: &latency2, Success: false}); err != nil {
		t.Fatalf("RecordMetrics failed: %v", err)
	}

	got, err := s.GetVersion(ctx, p.ID, 1)
	if err != nil {
		t.Fatalf("GetVersion failed: %v", err)
	}
	if got.TotalInvocations != 2 {
		t.Errorf("expected 2 invocations, got %d", got.TotalInvocations)
	}
	if got.AvgLatencyMs == nil || *got.AvgLatencyMs != 200.0 {
		t.Errorf("expected avg latency 200, got %v", got.AvgLatencyMs)
	}
	if got.SuccessRate == nil || *got.SuccessRate != 0.5 {
		t.Errorf("expected success rate 0.5, got %v", got.SuccessRate)
	}
}

func TestQueryFieldLookup(t *testing.T) {
	v := Version{
		VersionNumber: 3,
		Content:       "hello",
		Tags:          []string{"stable"},
		SemanticDiff:  map[string]any{"summary": "tone shift"},
	}

	if got, ok := v.QueryField("version_number"); !ok || got != int64(3) {
		t.Errorf("version_number lookup failed: %v %v", got, ok)
	}
	if got, ok := v.QueryField("semantic_diff.summary"); !ok || got != "tone shift" {
		t.Errorf("dotted lookup failed: %v %v", got, ok)
	}
	if _, ok := v.QueryField("semantic_diff.missing"); ok {
		t.Error("expected missing nested field to be absent")
	}
	if _, ok := v.QueryField("success_rate"); ok {
		t.Error("expected nil metric to be absent")
	}
	if _, ok := v.QueryField("author"); ok {
		t.Error("expected empty author to be absent")
	}
}
