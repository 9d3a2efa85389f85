package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/preflight-ai/cli/internal/review"
)

// patchContextLines is the unified-diff context width, matching what
// git produces by default.
const patchContextLines = 3

const noNewlineMarker = "\\ No newline at end of file"

// BuildPatch renders planned rewrites as a unified patch that git apply
// accepts. Paths are emitted as given, under a/ and b/ prefixes, so
// callers pass repo-relative paths when the patch targets a worktree.
// Changes with identical before and after content are skipped; an
// all-skipped input yields nil output.
func BuildPatch(changes []review.FileChange) ([]byte, error) {
	fileDiffs := make([]*godiff.FileDiff, 0, len(changes))
	for _, change := range changes {
		if change.Before == change.After {
			continue
		}
		hunks := buildHunks(change.Before, change.After)
		if len(hunks) == 0 {
			continue
		}
		fileDiffs = append(fileDiffs, &godiff.FileDiff{
			OrigName: "a/" + change.Path,
			NewName:  "b/" + change.Path,
			Hunks:    hunks,
		})
	}
	if len(fileDiffs) == 0 {
		return nil, nil
	}
	out, err := godiff.PrintMultiFileDiff(fileDiffs)
	if err != nil {
		return nil, fmt.Errorf("printing patch: %w", err)
	}
	return out, nil
}

type lineOpKind int

const (
	opContext lineOpKind = iota
	opAdd
	opRemove
)

// lineOp is one line of a unified diff body before it is grouped into
// hunks.
type lineOp struct {
	kind lineOpKind
	text string
}

// diffLineOps computes a line-level operation stream between two texts.
// The line-to-rune reduction keeps diffmatchpatch from splitting inside
// lines, and semantic cleanup is deliberately not applied: cleanup can
// merge changes across line boundaries, and the ops must stay strictly
// line aligned for the patch to apply.
func diffLineOps(before, after string) []lineOp {
	dmp := diffmatchpatch.New()
	beforeRunes, afterRunes, lineIndex := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeRunes, afterRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lineIndex)

	var ops []lineOp
	for _, d := range diffs {
		var kind lineOpKind
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			kind = opContext
		case diffmatchpatch.DiffInsert:
			kind = opAdd
		case diffmatchpatch.DiffDelete:
			kind = opRemove
		}
		for _, text := range splitLines(d.Text) {
			ops = append(ops, lineOp{kind: kind, text: text})
		}
	}
	return ops
}

// splitLines splits text into lines without terminators. A trailing
// newline does not produce an empty final line; a final line without a
// newline is kept.
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

// buildHunks turns the op stream for one file into unified-diff hunks
// with patchContextLines of surrounding context. Changes closer
// together than a full context gap share a hunk.
func buildHunks(before, after string) []*godiff.Hunk {
	ops := diffLineOps(before, after)

	var changed []int
	for i, op := range ops {
		if op.kind != opContext {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	// Old and new line numbers per op. Context and removed ops occupy a
	// line of the old file, context and added ops a line of the new
	// file; the other counter holds the last line consumed before the
	// op, which is what a zero-length hunk side reports as its start.
	oldLines := make([]int, len(ops))
	newLines := make([]int, len(ops))
	oldNo, newNo := 0, 0
	for i, op := range ops {
		switch op.kind {
		case opContext:
			oldNo++
			newNo++
		case opRemove:
			oldNo++
		case opAdd:
			newNo++
		}
		oldLines[i] = oldNo
		newLines[i] = newNo
	}
	totalOld, totalNew := oldNo, newNo
	beforeOpenEnded := before != "" && !strings.HasSuffix(before, "\n")
	afterOpenEnded := after != "" && !strings.HasSuffix(after, "\n")

	type span struct{ start, end int }
	var spans []span
	current := span{changed[0], changed[0]}
	for _, idx := range changed[1:] {
		if idx-current.end <= 2*patchContextLines {
			current.end = idx
			continue
		}
		spans = append(spans, current)
		current = span{idx, idx}
	}
	spans = append(spans, current)

	hunks := make([]*godiff.Hunk, 0, len(spans))
	for _, sp := range spans {
		start := sp.start - patchContextLines
		if start < 0 {
			start = 0
		}
		end := sp.end + patchContextLines
		if end > len(ops)-1 {
			end = len(ops) - 1
		}

		var body strings.Builder
		origStart, newStart := 0, 0
		origCount, newCount := 0, 0
		origSet, newSet := false, false
		for i := start; i <= end; i++ {
			op := ops[i]
			switch op.kind {
			case opContext:
				body.WriteByte(' ')
				origCount++
				newCount++
				if !origSet {
					origStart, origSet = oldLines[i], true
				}
				if !newSet {
					newStart, newSet = newLines[i], true
				}
			case opRemove:
				body.WriteByte('-')
				origCount++
				if !origSet {
					origStart, origSet = oldLines[i], true
				}
			case opAdd:
				body.WriteByte('+')
				newCount++
				if !newSet {
					newStart, newSet = newLines[i], true
				}
			}
			body.WriteString(op.text)
			body.WriteByte('\n')
			switch {
			case op.kind != opAdd && beforeOpenEnded && oldLines[i] == totalOld:
				body.WriteString(noNewlineMarker)
				body.WriteByte('\n')
			case op.kind == opAdd && afterOpenEnded && newLines[i] == totalNew:
				body.WriteString(noNewlineMarker)
				body.WriteByte('\n')
			}
		}
		// A side with no lines in the hunk starts at the line preceding
		// the change, per unified-diff convention.
		if !origSet {
			origStart = oldLines[start]
		}
		if !newSet {
			newStart = newLines[start]
		}
		hunks = append(hunks, &godiff.Hunk{
			OrigStartLine: int32(origStart),
			OrigLines:     int32(origCount),
			NewStartLine:  int32(newStart),
			NewLines:      int32(newCount),
			Body:          []byte(body.String()),
		})
	}
	return hunks
}
