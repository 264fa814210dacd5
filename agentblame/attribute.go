package agentblame

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/agentblame/agentblame/agentblame/eventstore"
	"github.com/agentblame/agentblame/agentblame/ledger"
	"github.com/agentblame/agentblame/agentblame/segment"
)

// QueryOpts restricts and filters one blame query.
type QueryOpts struct {
	// StartLine/EndLine limit the query to a line range when both > 0.
	StartLine int
	EndLine   int
	// MinTier drops attributions weaker than the given tier (1 strongest,
	// 6 weakest). 0 or 6 keeps everything.
	MinTier int
}

// queryCache memoizes per-commit lookups for the duration of one query.
// It is created per Attribute call and never shared.
type queryCache struct {
	parents     map[string]string
	authorTimes map[string]time.Time
	links       map[string]*eventstore.CommitLink
}

func newQueryCache() *queryCache {
	return &queryCache{
		parents:     map[string]string{},
		authorTimes: map[string]time.Time{},
		links:       map[string]*eventstore.CommitLink{},
	}
}

func (q *queryCache) parent(ctx context.Context, s *AgentBlame, sha string) string {
	if p, ok := q.parents[sha]; ok {
		return p
	}
	p := s.reader.Parent(ctx, sha)
	q.parents[sha] = p
	return p
}

func (q *queryCache) authorTime(ctx context.Context, s *AgentBlame, sha string) time.Time {
	if t, ok := q.authorTimes[sha]; ok {
		return t
	}
	t := s.reader.AuthorTime(ctx, sha)
	q.authorTimes[sha] = t
	return t
}

func (q *queryCache) link(s *AgentBlame, sha string) *eventstore.CommitLink {
	if l, ok := q.links[sha]; ok {
		return l
	}
	l := s.events.CommitLink(sha)
	q.links[sha] = l
	return l
}

// Attribute runs the blame query for one file: blame, segment grouping,
// ledger-first lookup with heuristic fallback for anything the ledgers
// do not cover, then merging and tier filtering.
func (s *AgentBlame) Attribute(ctx context.Context, file string, opts QueryOpts) ([]Attribution, error) {
	records, err := s.reader.Blame(ctx, file, opts.StartLine, opts.EndLine)
	if err != nil {
		return nil, fmt.Errorf("blame failed for %v: %w", file, err)
	}
	segments := segment.Group(records)
	if len(segments) == 0 {
		return nil, nil
	}

	q := newQueryCache()
	ledgers := s.ledgers.Load()
	allEvents := s.events.AllEvents()

	var out []Attribution
	for _, seg := range segments {
		out = append(out, s.attributeSegment(ctx, q, ledgers, allEvents, file, seg)...)
	}

	out = mergeAttributions(out)

	if opts.MinTier > 0 && opts.MinTier < 6 {
		var kept []Attribution
		for _, a := range out {
			if a.Tier == 0 || a.Tier <= opts.MinTier {
				kept = append(kept, a)
			}
		}
		out = kept
	}
	return out, nil
}

// attributeSegment resolves one segment. When a ledger exists for the
// segment's commit, the ledger's ranges (original numbering) are
// translated to current numbers via the segment's constant offset. Every
// uncovered gap left between hits goes through the heuristic, clamped to
// the gap.
func (s *AgentBlame) attributeSegment(ctx context.Context, q *queryCache, ledgers map[string]*ledger.Ledger, allEvents []eventstore.Event, file string, seg segment.Segment) []Attribution {
	l := ledgers[seg.CommitSHA]
	if l == nil {
		return []Attribution{s.heuristicFor(ctx, q, allEvents, file, seg, seg.OrigStart, seg.OrigEnd)}
	}

	ranges := l.RangesFor(file)
	type covered struct {
		lo, hi int
		r      ledger.LineRange
	}
	var hits []covered
	for _, r := range ranges {
		lo := max(r.StartLine, seg.OrigStart)
		hi := min(r.EndLine, seg.OrigEnd)
		if lo <= hi {
			hits = append(hits, covered{lo, hi, r})
		}
	}
	if len(hits) == 0 {
		return []Attribution{s.heuristicFor(ctx, q, allEvents, file, seg, seg.OrigStart, seg.OrigEnd)}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].lo < hits[j].lo })

	off := seg.Offset()
	var out []Attribution
	next := seg.OrigStart
	for _, h := range hits {
		if h.lo > next {
			out = append(out, s.heuristicFor(ctx, q, allEvents, file, seg, next, h.lo-1))
		}
		out = append(out, ledgerAttribution(h.r, h.lo+off, h.hi+off, seg.CommitSHA))
		if h.hi+1 > next {
			next = h.hi + 1
		}
	}
	if next <= seg.OrigEnd {
		out = append(out, s.heuristicFor(ctx, q, allEvents, file, seg, next, seg.OrigEnd))
	}
	return out
}

// heuristicFor scores the original-numbered subrange [origLo, origHi] of
// a segment, clamped to the segment's bounds.
func (s *AgentBlame) heuristicFor(ctx context.Context, q *queryCache, allEvents []eventstore.Event, file string, seg segment.Segment, origLo, origHi int) Attribution {
	off := seg.Offset()
	lines := seg.ContentLines[origLo-seg.OrigStart : origHi-seg.OrigStart+1]
	return s.scoreHeuristic(scoreInput{
		file:         file,
		startLine:    origLo + off,
		endLine:      origHi + off,
		contentLines: lines,
		commitSHA:    seg.CommitSHA,
		parentSHA:    q.parent(ctx, s, seg.CommitSHA),
		committedAt:  q.authorTime(ctx, s, seg.CommitSHA),
		link:         q.link(s, seg.CommitSHA),
	}, allEvents)
}

// ledgerAttribution converts a ledger line range to output form.
// ai maps to tier 1 (the strongest evidence the system has), mixed to
// tier 3, human to no tier.
func ledgerAttribution(r ledger.LineRange, curLo, curHi int, commitSHA string) Attribution {
	a := Attribution{
		StartLine:       curLo,
		EndLine:         curHi,
		Kind:            r.Type,
		EventID:         r.EventID,
		ModelID:         r.ModelID,
		ConversationURL: r.ConversationURL,
		CommitSHA:       commitSHA,
		Source:          SourceLedger,
	}
	switch r.Type {
	case ledger.KindAI:
		a.Tier = 1
		a.Confidence = 1.0
		a.Signals = []string{SignalLedger, SignalContentHash}
	case ledger.KindMixed:
		a.Tier = 3
		a.Confidence = 0.95
		a.Signals = []string{SignalLedger, SignalRangeMatch}
	case ledger.KindHuman:
		// no tier: the ledger affirms human authorship
		a.Signals = []string{SignalLedger}
	}
	return a
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
