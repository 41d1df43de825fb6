// Package textdiff provides the line-diff and similarity primitives shared by
// the patch and merge engines.
package textdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines kept around each hunk.
const contextLines = 3

// Similarity returns a character-level similarity ratio between a and b in
// [0, 1], computed as 2*matched/(len(a)+len(b)). Two empty strings are
// considered identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a)+len(b) == 0 {
		return 1.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)

	matched := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += len(d.Text)
		}
	}

	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

// lineOp is a single line of a line-level diff.
type lineOp struct {
	kind byte // ' ', '-' or '+'
	text string
}

// lineDiff computes a line-level diff between old and new content.
func lineDiff(oldContent, newContent string) []lineOp {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lineArray := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(oldChars, newChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var ops []lineOp
	for _, d := range diffs {
		var kind byte
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			kind = ' '
		case diffmatchpatch.DiffDelete:
			kind = '-'
		case diffmatchpatch.DiffInsert:
			kind = '+'
		}
		for _, line := range splitLines(d.Text) {
			ops = append(ops, lineOp{kind: kind, text: line})
		}
	}
	return ops
}

// splitLines splits a diff fragment into logical lines without trailing
// newlines. A fragment that does not end in a newline still yields its final
// partial line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// LineChanges returns the lines added and removed going from base to branch,
// in diff order.
func LineChanges(base, branch string) (added, removed []string) {
	if base != "" && !strings.HasSuffix(base, "\n") {
		base += "\n"
	}
	if branch != "" && !strings.HasSuffix(branch, "\n") {
		branch += "\n"
	}
	for _, op := range lineDiff(base, branch) {
		switch op.kind {
		case '+':
			added = append(added, op.text)
		case '-':
			removed = append(removed, op.text)
		}
	}
	return added, removed
}

// Unified renders a unified diff between old and new content with the given
// from/to header labels and three lines of context. Returns the empty string
// when the contents are identical.
func Unified(oldContent, newContent, fromLabel, toLabel string) string {
	if oldContent == newContent {
		return ""
	}

	// Normalize trailing newlines so the final line diffs cleanly.
	if oldContent != "" && !strings.HasSuffix(oldContent, "\n") {
		oldContent += "\n"
	}
	if newContent != "" && !strings.HasSuffix(newContent, "\n") {
		newContent += "\n"
	}

	ops := lineDiff(oldContent, newContent)

	hunks := buildHunks(ops)
	if len(hunks) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", fromLabel)
	fmt.Fprintf(&b, "+++ %s\n", toLabel)
	for _, h := range hunks {
		b.WriteString(h.header())
		for _, op := range h.ops {
			b.WriteByte(op.kind)
			b.WriteString(op.text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// hunk is a contiguous group of diff lines with its position in both files.
type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	ops                []lineOp
}

func (h hunk) header() string {
	oldStart, newStart := h.oldStart, h.newStart
	if h.oldCount == 0 {
		oldStart--
	}
	if h.newCount == 0 {
		newStart--
	}
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@\n", oldStart, h.oldCount, newStart, h.newCount)
}

// buildHunks groups change runs into hunks with surrounding context, merging
// hunks whose context regions touch.
func buildHunks(ops []lineOp) []hunk {
	// Index of every changed op.
	var changed []int
	for i, op := range ops {
		if op.kind != ' ' {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	// Group changed indices whose context windows overlap.
	type span struct{ start, end int } // inclusive op index range
	var spans []span
	cur := span{start: changed[0], end: changed[0]}
	for _, idx := range changed[1:] {
		if idx-cur.end <= 2*contextLines {
			cur.end = idx
			continue
		}
		spans = append(spans, cur)
		cur = span{start: idx, end: idx}
	}
	spans = append(spans, cur)

	// Running line numbers per op index.
	oldLine, newLine := 1, 1
	oldLines := make([]int, len(ops))
	newLines := make([]int, len(ops))
	for i, op := range ops {
		oldLines[i] = oldLine
		newLines[i] = newLine
		switch op.kind {
		case ' ':
			oldLine++
			newLine++
		case '-':
			oldLine++
		case '+':
			newLine++
		}
	}

	var hunks []hunk
	for _, sp := range spans {
		start := sp.start - contextLines
		if start < 0 {
			start = 0
		}
		end := sp.end + contextLines
		if end > len(ops)-1 {
			end = len(ops) - 1
		}

		h := hunk{
			oldStart: oldLines[start],
			newStart: newLines[start],
			ops:      ops[start : end+1],
		}
		for _, op := range h.ops {
			switch op.kind {
			case ' ':
				h.oldCount++
				h.newCount++
			case '-':
				h.oldCount++
			case '+':
				h.newCount++
			}
		}
		hunks = append(hunks, h)
	}
	return hunks
}
