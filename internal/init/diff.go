package initcmd

import (
	"fmt"
	"strings"
)

// diffContext is the number of unchanged lines shown around each change.
const diffContext = 3

type lineOp byte

const (
	opKeep   lineOp = ' '
	opDelete lineOp = '-'
	opInsert lineOp = '+'
)

type diffLine struct {
	op   lineOp
	text string
	old  int // 1-based line in old, 0 for inserts
	new  int // 1-based line in new, 0 for deletes
}

// UnifiedDiff renders the changes from oldContent to newContent in unified
// format. It returns "" when the contents are equal.
func UnifiedDiff(oldName, newName, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}

	lines := diffLines(splitLines(oldContent), splitLines(newContent))

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s\n+++ %s\n", oldName, newName)
	for _, h := range hunks(lines) {
		writeHunk(&out, lines[h[0]:h[1]])
	}
	return out.String()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// diffLines aligns a and b on their longest common subsequence.
func diffLines(a, b []string) []diffLine {
	// lcs[i][j] is the LCS length of a[i:] and b[j:]
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var out []diffLine
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			out = append(out, diffLine{op: opKeep, text: a[i], old: i + 1, new: j + 1})
			i++
			j++
		case i < len(a) && (j == len(b) || lcs[i+1][j] >= lcs[i][j+1]):
			out = append(out, diffLine{op: opDelete, text: a[i], old: i + 1})
			i++
		default:
			out = append(out, diffLine{op: opInsert, text: b[j], new: j + 1})
			j++
		}
	}
	return out
}

// hunks returns [start, end) ranges of lines to print. Changes separated by
// at most 2*diffContext unchanged lines share a hunk.
func hunks(lines []diffLine) [][2]int {
	var out [][2]int
	for i, l := range lines {
		if l.op == opKeep {
			continue
		}
		start := max(i-diffContext, 0)
		end := min(i+1+diffContext, len(lines))
		if n := len(out); n > 0 && start <= out[n-1][1] {
			out[n-1][1] = end
			continue
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

func writeHunk(out *strings.Builder, lines []diffLine) {
	oldStart, newStart := 0, 0
	oldCount, newCount := 0, 0
	for _, l := range lines {
		if l.op != opInsert {
			if oldStart == 0 {
				oldStart = l.old
			}
			oldCount++
		}
		if l.op != opDelete {
			if newStart == 0 {
				newStart = l.new
			}
			newCount++
		}
	}

	fmt.Fprintf(out, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
	for _, l := range lines {
		out.WriteByte(byte(l.op))
		out.WriteString(l.text)
		out.WriteByte('\n')
	}
}
