package patch

import (
	"fmt"

	"github.com/promptpit/pit/internal/textdiff"
)

// fuzzyThreshold is the minimum similarity between a patch's base content
// and the target for a best-effort apply.
const fuzzyThreshold = 0.8

// ApplyStatus classifies what an apply against a given target would do.
type ApplyStatus int

const (
	// StatusClean means the target matches the patch base exactly.
	StatusClean ApplyStatus = iota
	// StatusAlreadyApplied means the target already equals the patched result.
	StatusAlreadyApplied
	// StatusBaseMismatch means the target diverged from the patch base.
	StatusBaseMismatch
)

func (s ApplyStatus) String() string {
	switch s {
	case StatusClean:
		return "clean apply possible"
	case StatusAlreadyApplied:
		return "patch already applied (content matches new_content)"
	case StatusBaseMismatch:
		return "target content doesn't match patch base"
	}
	return "unknown"
}

// CanApply checks a patch against target content without modifying anything.
func CanApply(p *Patch, targetContent string) ApplyStatus {
	if targetContent == p.OldContent {
		return StatusClean
	}
	if targetContent == p.NewContent {
		return StatusAlreadyApplied
	}
	return StatusBaseMismatch
}

// Apply returns the patched content. It only succeeds on a clean apply;
// anything else returns an error naming the reason.
func Apply(p *Patch, targetContent string) (string, error) {
	status := CanApply(p, targetContent)
	if status != StatusClean {
		return "", fmt.Errorf("cannot apply patch: %s", status)
	}
	return p.NewContent, nil
}

// ApplyFuzzy tries a best-effort apply. An exact base match applies
// directly; otherwise, if the target is similar enough to the patch base,
// the patch's new content replaces the target wholesale. The second return
// is false when the target is too different.
//
// The wholesale replacement discards any local edits the target had on top
// of the base. Callers should preview before writing the result back.
func ApplyFuzzy(p *Patch, targetContent string) (string, bool) {
	if targetContent == p.OldContent {
		return p.NewContent, true
	}
	if textdiff.Similarity(p.OldContent, targetContent) > fuzzyThreshold {
		return p.NewContent, true
	}
	return "", false
}

// Preview describes what applying the patch would do, including a truncated
// result preview on a clean apply.
func Preview(p *Patch, targetContent string) string {
	status := CanApply(p, targetContent)
	if status != StatusClean {
		return fmt.Sprintf("✗ Cannot apply: %s", status)
	}

	preview := p.NewContent
	suffix := ""
	if len(preview) > 500 {
		preview = preview[:500]
		suffix = "..."
	}
	return fmt.Sprintf("✓ Can apply cleanly\n\nResult preview:\n%s%s", preview, suffix)
}
