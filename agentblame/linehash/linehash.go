// Package linehash provides content addressing for blame and ledger
// comparisons. Hashes are sha256 truncated to 16 hex chars and carried
// with a "sha256:" prefix. Comparison tolerates older shorter hashes by
// matching on the shorter of the two value lengths.
package linehash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const prefix = "sha256:"

// hexLen is the truncated digest width. 64 bits is collision-safe for any
// realistic project and keeps JSONL records small.
const hexLen = 16

// Hash returns the content hash of text. Line endings are normalized to
// LF and any trailing newline is stripped, so the same logical content
// hashes identically whether it came from a tool edit (trailing newline)
// or from joined blame lines (no trailing newline).
func Hash(text string) string {
	normalized := normalize(text)
	normalized = strings.TrimRight(normalized, "\n")
	return raw(normalized)
}

// HashBlock hashes a block of lines joined by LF.
func HashBlock(lines []string) string {
	return Hash(strings.Join(lines, "\n"))
}

// FileLineHashes hashes every line of content, returning a 1-indexed map.
// A trailing empty element caused by the file's final newline is dropped.
func FileLineHashes(content string) map[int]string {
	lines := strings.Split(normalize(content), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	res := make(map[int]string, len(lines))
	for i, line := range lines {
		res[i+1] = raw(line)
	}
	return res
}

// Match reports whether two hashes refer to the same content, comparing
// value portions on the shorter of the two lengths. Empty values never
// match.
func Match(a, b string) bool {
	av := Value(a)
	bv := Value(b)
	n := len(av)
	if len(bv) < n {
		n = len(bv)
	}
	if n == 0 {
		return false
	}
	return av[:n] == bv[:n]
}

// Value strips the algorithm prefix and lowercases the hex portion.
func Value(h string) string {
	return strings.ToLower(strings.TrimPrefix(h, prefix))
}

// trivial holds hashes of empty and common whitespace-only lines. They
// match across unrelated edits and carry no authorship signal.
var trivial = func() []string {
	var hs []string
	for _, s := range []string{"", " ", "\t", "  ", "    ", "\t\t"} {
		hs = append(hs, raw(s))
	}
	return hs
}()

// IsTrivial reports whether h is the hash of an empty or whitespace-only
// line. Trivial hashes must be excluded from evidentiary matching.
func IsTrivial(h string) bool {
	for _, t := range trivial {
		if Match(h, t) {
			return true
		}
	}
	return false
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func raw(s string) string {
	h := sha256.Sum256([]byte(s))
	return prefix + hex.EncodeToString(h[:])[:hexLen]
}
