package agentblame

import (
	"time"

	"github.com/agentblame/agentblame/agentblame/eventstore"
	"github.com/agentblame/agentblame/agentblame/linehash"
)

// Signal weights for heuristic scoring.
const (
	weightCommitLink     = 40.0
	weightContentHash    = 30.0
	weightRevisionParent = 15.0
	weightRangeMatch     = 10.0
	weightRangeOverlap   = 5.0
	weightTimestamp      = 5.0
)

// rangeTolerance is how far outside a recorded range the representative
// line may fall and still count as overlap evidence.
const rangeTolerance = 5

// candidateThreshold: the time-window path only runs when the stronger
// paths produced fewer candidates than this.
const candidateThreshold = 5

// scoreInput is one heuristic scoring request: a line range of a single
// commit with no covering ledger entry.
type scoreInput struct {
	file         string
	startLine    int
	endLine      int
	contentLines []string
	commitSHA    string
	parentSHA    string
	committedAt  time.Time
	link         *eventstore.CommitLink
}

// scoreHeuristic finds and scores candidate events for the input range
// and returns the resulting attribution. Ties resolve to the first
// candidate seen, which is store arrival order.
func (s *AgentBlame) scoreHeuristic(in scoreInput, allEvents []eventstore.Event) Attribution {
	repLine := (in.startLine + in.endLine) / 2
	contentHash := linehash.HashBlock(in.contentLines)

	var linkedIDs map[string]bool
	if in.link != nil {
		linkedIDs = map[string]bool{}
		for _, id := range in.link.EventIDs {
			linkedIDs[id] = true
		}
	}

	candidates := s.findCandidates(in, allEvents)

	var best *eventstore.Event
	var bestScore float64
	var bestSignals []string

	for i := range candidates {
		e := &candidates[i]
		score, signals := scoreEvent(e, in.file, repLine, contentHash, in.parentSHA, linkedIDs)
		if score > bestScore {
			bestScore = score
			best = e
			bestSignals = signals
		}
	}

	none := Attribution{
		StartLine: in.startLine,
		EndLine:   in.endLine,
		CommitSHA: in.commitSHA,
		Source:    SourceHeuristic,
	}
	if best == nil || bestScore <= 0 {
		return none
	}

	tier := computeTier(bestScore, bestSignals)
	if !passesGates(bestSignals) {
		tier = 0
	}
	if tier == 0 {
		return none
	}

	attr := Attribution{
		StartLine:  in.startLine,
		EndLine:    in.endLine,
		Tier:       tier,
		Confidence: confidenceFor(tier),
		EventID:    best.ID,
		ModelID:    best.ModelID,
		CommitSHA:  in.commitSHA,
		Signals:    bestSignals,
		Source:     SourceHeuristic,
	}
	if fe := best.FileFor(in.file); fe != nil {
		attr.ConversationURL = fe.ConversationURL
	}
	return attr
}

// findCandidates gathers candidate events via three non-exclusive paths:
// commit-link membership, parent-revision match, and (only when those
// yield too few) the commit's time window. All paths then require the
// event to actually list the queried file.
func (s *AgentBlame) findCandidates(in scoreInput, all []eventstore.Event) []eventstore.Event {
	var res []eventstore.Event
	seen := map[string]bool{}
	add := func(e eventstore.Event) {
		if seen[e.ID] || e.FileFor(in.file) == nil {
			return
		}
		res = append(res, e)
		seen[e.ID] = true
	}

	if in.link != nil {
		linked := map[string]bool{}
		for _, id := range in.link.EventIDs {
			linked[id] = true
		}
		for _, e := range all {
			if linked[e.ID] {
				add(e)
			}
		}
	}

	if in.parentSHA != "" {
		for _, e := range all {
			if e.Revision == in.parentSHA {
				add(e)
			}
		}
	}

	if len(res) < candidateThreshold && !in.committedAt.IsZero() {
		from := in.committedAt.Add(-24 * time.Hour)
		to := in.committedAt.Add(1 * time.Hour)
		for _, e := range all {
			if e.Timestamp.IsZero() {
				continue
			}
			if !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
				add(e)
			}
		}
	}
	return res
}

// scoreEvent sums the weights of every signal the candidate matched.
func scoreEvent(e *eventstore.Event, file string, repLine int, contentHash, parentSHA string, linkedIDs map[string]bool) (float64, []string) {
	var score float64
	var signals []string

	if linkedIDs != nil && linkedIDs[e.ID] {
		score += weightCommitLink
		signals = append(signals, SignalCommitLink)
	}

	if e.Revision != "" && parentSHA != "" && revisionsMatch(e.Revision, parentSHA) {
		score += weightRevisionParent
		signals = append(signals, SignalRevisionParent)
	}

	if fe := e.FileFor(file); fe != nil {
		for _, r := range fe.Ranges {
			if r.StartLine <= repLine && repLine <= r.EndLine {
				score += weightRangeMatch
				signals = append(signals, SignalRangeMatch)
				break
			}
			if r.StartLine-rangeTolerance <= repLine && repLine <= r.EndLine+rangeTolerance {
				score += weightRangeOverlap
				signals = append(signals, SignalRangeOverlap)
				break
			}
		}
		if contentHash != "" && matchesAnyHash(fe, contentHash) {
			score += weightContentHash
			signals = append(signals, SignalContentHash)
		}
	}

	if !e.Timestamp.IsZero() {
		score += weightTimestamp
		signals = append(signals, SignalTimestamp)
	}

	return score, signals
}

func matchesAnyHash(fe *eventstore.FileEdit, contentHash string) bool {
	for _, r := range fe.Ranges {
		if r.ContentHash != "" && linehash.Match(contentHash, r.ContentHash) {
			return true
		}
		for _, lh := range r.LineHashes {
			if lh.Hash != "" && linehash.Match(contentHash, lh.Hash) {
				return true
			}
		}
	}
	return false
}

// revisionsMatch compares revisions exactly, accepting abbreviated shas
// of at least 7 chars by prefix.
func revisionsMatch(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) < 7 || len(b) < 7 {
		return false
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	return a[:n] == b[:n]
}

// passesGates enforces the two acceptance gates: at least one structural
// (non-timestamp) signal must have fired, and the evidence must include
// range coverage, or a commit link corroborated by a content hash, or a
// commit link corroborated by a revision match. A bare timestamp window
// would flag every manual edit made near any agent session; a bare
// content hash can be a coincidental snippet.
func passesGates(signals []string) bool {
	has := func(sig string) bool {
		for _, s := range signals {
			if s == sig {
				return true
			}
		}
		return false
	}
	structural := false
	for _, s := range signals {
		if s != SignalTimestamp {
			structural = true
			break
		}
	}
	if !structural {
		return false
	}
	switch {
	case has(SignalRangeMatch) || has(SignalRangeOverlap):
		return true
	case has(SignalCommitLink) && has(SignalContentHash):
		return true
	case has(SignalCommitLink) && has(SignalRevisionParent):
		return true
	}
	return false
}
