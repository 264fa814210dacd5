// Package segment groups ordered blame records into maximal contiguous
// runs of lines tied to one commit.
package segment

import "github.com/agentblame/agentblame/agentblame/gitsource"

// Segment is a contiguous same-commit run of lines in the blamed file.
// CurrentStart/CurrentEnd number the lines as displayed today;
// OrigStart/OrigEnd number them as authored in the segment's commit.
// The offset CurrentStart-OrigStart is constant across the segment.
type Segment struct {
	CommitSHA    string
	CurrentStart int
	CurrentEnd   int
	OrigStart    int
	OrigEnd      int
	ContentLines []string

	Author     string
	AuthorTime int64
	Summary    string
}

// Offset translates original line numbers to current ones for this
// segment: current = original + Offset().
func (s Segment) Offset() int {
	return s.CurrentStart - s.OrigStart
}

// Group collapses consecutive records sharing a commit into segments. A
// new segment starts when the commit changes or when the current line
// number is discontiguous with the previous record (a range-limited blame
// leaves holes). Two adjacent segments never share a commit when they
// could have been merged; the offset math in ledger coverage depends on
// that.
func Group(records []gitsource.BlameLine) []Segment {
	var res []Segment
	var cur *Segment

	for _, rec := range records {
		// Original numbering must stay contiguous too: the same commit can
		// contribute two separate hunks that later deletions made adjacent,
		// and merging those would break the constant-offset invariant.
		if cur != nil && cur.CommitSHA == rec.CommitSHA &&
			cur.CurrentEnd+1 == rec.FinalLine && cur.OrigEnd+1 == rec.OrigLine {
			cur.CurrentEnd = rec.FinalLine
			cur.OrigEnd = rec.OrigLine
			cur.ContentLines = append(cur.ContentLines, rec.Content)
			continue
		}
		if cur != nil {
			res = append(res, *cur)
		}
		cur = &Segment{
			CommitSHA:    rec.CommitSHA,
			CurrentStart: rec.FinalLine,
			CurrentEnd:   rec.FinalLine,
			OrigStart:    rec.OrigLine,
			OrigEnd:      rec.OrigLine,
			ContentLines: []string{rec.Content},
			Author:       rec.Author,
			Summary:      rec.Summary,
		}
		if !rec.AuthorTime.IsZero() {
			cur.AuthorTime = rec.AuthorTime.Unix()
		}
	}
	if cur != nil {
		res = append(res, *cur)
	}
	return res
}
