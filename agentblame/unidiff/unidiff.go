// Package unidiff extracts added-line ranges from unified diff text.
// Only additions on the new side count as changed; context lines and
// deletions are ignored so a deletion followed by unrelated context is
// never reported as an addition.
package unidiff

import (
	"regexp"
	"strings"
)

// Range is a 1-indexed inclusive line range on the new side of a diff.
type Range struct {
	Start int
	End   int
}

var hunkRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// AddedRanges walks unified diff output and returns the new-side line
// ranges covered by '+' lines.
func AddedRanges(diff string) []Range {
	var ranges []Range

	inHunk := false
	currentNewLine := 0
	addStart := 0 // 0 = no open run

	flush := func() {
		if addStart != 0 {
			ranges = append(ranges, Range{Start: addStart, End: currentNewLine - 1})
			addStart = 0
		}
	}

	for _, line := range strings.Split(diff, "\n") {
		if m := hunkRe.FindStringSubmatch(line); m != nil {
			flush()
			currentNewLine = atoi(m[1])
			inHunk = true
			continue
		}
		if !inHunk {
			continue
		}
		switch {
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file"
		case strings.HasPrefix(line, "+"):
			if addStart == 0 {
				addStart = currentNewLine
			}
			currentNewLine++
		case strings.HasPrefix(line, "-"):
			// deletions don't advance the new-side counter
			flush()
		default:
			flush()
			currentNewLine++
		}
	}
	flush()

	return ranges
}

// Lines expands ranges into the sorted set of covered line numbers.
func Lines(ranges []Range) []int {
	var res []int
	for _, r := range ranges {
		for ln := r.Start; ln <= r.End; ln++ {
			res = append(res, ln)
		}
	}
	return res
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
