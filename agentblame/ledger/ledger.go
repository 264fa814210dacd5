// Package ledger builds and stores deterministic per-commit line
// attribution. A ledger is built once, at commit time, by correlating the
// commit's diff against recorded agent edit events; blame queries consult
// it before falling back to heuristic scoring.
package ledger

import (
	"strings"
	"time"
)

// Kind classifies the origin of a line.
type Kind string

const (
	// KindAI is a line whose committed content exactly matches a hash an
	// agent recorded.
	KindAI = Kind("ai")
	// KindHuman is a line with no agent evidence.
	KindHuman = Kind("human")
	// KindMixed is a line inside an agent-claimed range whose content
	// diverged from what the agent produced: human-edited AI code.
	KindMixed = Kind("mixed")
)

// LineRange is one ledger entry: a run of contiguous lines, in the
// commit's own (original) numbering, sharing a kind and source event.
type LineRange struct {
	StartLine       int    `json:"start_line"`
	EndLine         int    `json:"end_line"`
	Type            Kind   `json:"type"`
	EventID         string `json:"event_id,omitempty"`
	ModelID         string `json:"model_id,omitempty"`
	ConversationURL string `json:"conversation_url,omitempty"`
}

// Ledger is the per-commit attribution record. Immutable except for
// commit/parent rewriting after a history rewrite. CreatedAt-style
// wall-clock fields are deliberately absent so rebuilding a commit's
// ledger is byte-identical.
type Ledger struct {
	Version     string                 `json:"version"`
	CommitSHA   string                 `json:"commit_sha"`
	ParentSHA   string                 `json:"parent_sha,omitempty"`
	CommittedAt time.Time              `json:"committed_at"`
	EventIDs    []string               `json:"event_ids"`
	Files       map[string][]LineRange `json:"files"`
}

// RangesFor returns the ledger's line ranges for a file. Ledger keys
// come from `git diff --name-only`, so queries with repo-relative paths
// match exactly; suffix matching covers callers passing longer paths.
func (l *Ledger) RangesFor(path string) []LineRange {
	if rs, ok := l.Files[path]; ok {
		return rs
	}
	for p, rs := range l.Files {
		if strings.HasSuffix(path, "/"+p) {
			return rs
		}
	}
	return nil
}
