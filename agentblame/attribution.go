package agentblame

import "github.com/agentblame/agentblame/agentblame/ledger"

// Source says which path produced an attribution.
type Source string

const (
	// SourceLedger is a deterministic per-commit ledger entry.
	SourceLedger = Source("ledger")
	// SourceHeuristic is multi-signal scoring against candidate events.
	SourceHeuristic = Source("heuristic")
)

// Signal names attached to heuristic attributions.
const (
	SignalCommitLink     = "commit_link"
	SignalRevisionParent = "revision_parent"
	SignalRangeMatch     = "range_match"
	SignalRangeOverlap   = "range_overlap"
	SignalContentHash    = "content_hash"
	SignalTimestamp      = "timestamp_match"
	SignalLedger         = "ledger"
)

// Attribution is the externally visible result for a line range.
// Tier 0 means no attribution.
type Attribution struct {
	StartLine  int         `json:"start_line"`
	EndLine    int         `json:"end_line"`
	Tier       int         `json:"tier,omitempty"`
	Confidence float64     `json:"confidence"`
	Kind       ledger.Kind `json:"kind,omitempty"`

	EventID         string `json:"event_id,omitempty"`
	ModelID         string `json:"model_id,omitempty"`
	ConversationURL string `json:"conversation_url,omitempty"`

	CommitSHA string   `json:"commit_sha,omitempty"`
	Signals   []string `json:"signals,omitempty"`
	Source    Source   `json:"source,omitempty"`
}

// Tier score thresholds and representative confidence values.
func computeTier(score float64, signals []string) int {
	if score <= 0 {
		return 0
	}
	has := func(sig string) bool {
		for _, s := range signals {
			if s == sig {
				return true
			}
		}
		return false
	}
	switch {
	case score >= 95 && has(SignalCommitLink) && has(SignalContentHash):
		return 1
	case score >= 80:
		return 2
	case score >= 60:
		return 3
	case score >= 45:
		return 4
	case score >= 25:
		return 5
	}
	return 6
}

var tierConfidence = map[int]float64{
	1: 1.0,
	2: 0.999,
	3: 0.95,
	4: 0.85,
	5: 0.70,
	6: 0.40,
}

func confidenceFor(tier int) float64 {
	return tierConfidence[tier]
}

// mergeAttributions merges adjacent output entries that share event and
// tier, so the visible output is coarse-grained rather than per-line
// noise.
func mergeAttributions(attrs []Attribution) []Attribution {
	var merged []Attribution
	for _, a := range attrs {
		if n := len(merged); n > 0 {
			prev := &merged[n-1]
			if prev.EndLine+1 >= a.StartLine && prev.EventID == a.EventID && prev.Tier == a.Tier && prev.Kind == a.Kind {
				if a.EndLine > prev.EndLine {
					prev.EndLine = a.EndLine
				}
				continue
			}
		}
		merged = append(merged, a)
	}
	return merged
}
