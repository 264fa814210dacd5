// Package eventstore holds the append-only record of agent edit events
// and of confirmed commit-event links.
package eventstore

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is one recorded agent action. Immutable once written.
type Event struct {
	Version      string     `json:"version,omitempty"`
	ID           string     `json:"id"`
	Timestamp    time.Time  `json:"timestamp"`
	Tool         Tool       `json:"tool"`
	ModelID      string     `json:"model_id,omitempty"`
	Revision     string     `json:"revision,omitempty"`
	EditSequence *int       `json:"edit_sequence,omitempty"`
	Files        []FileEdit `json:"files"`
}

// Tool identifies the agent that produced the event.
type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// FileEdit describes one file the event touched.
type FileEdit struct {
	Path            string      `json:"path"`
	ConversationURL string      `json:"conversation_url,omitempty"`
	Ranges          []EditRange `json:"ranges,omitempty"`
}

// EditRange is a line range the agent wrote, with optional content
// evidence.
type EditRange struct {
	StartLine   int        `json:"start_line"`
	EndLine     int        `json:"end_line"`
	ContentHash string     `json:"content_hash,omitempty"`
	LineHashes  []LineHash `json:"line_hashes,omitempty"`
}

// LineHash is the hash of a single line the agent produced.
type LineHash struct {
	Line int    `json:"line"`
	Hash string `json:"hash"`
}

// CommitLink associates one commit with the events judged to have
// contributed to it. At most one link per commit; later writes win.
type CommitLink struct {
	CommitSHA    string    `json:"commit_sha"`
	ParentSHA    string    `json:"parent_sha,omitempty"`
	EventIDs     []string  `json:"event_ids"`
	FilesChanged []string  `json:"files_changed"`
	CommittedAt  time.Time `json:"committed_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewEvent fills in the fields a submitter may omit: id, timestamp and
// version.
func NewEvent(e Event) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Version == "" {
		e.Version = "1.0"
	}
	e.ModelID = NormalizeModelID(e.ModelID)
	return e
}

// Seq returns the event's edit sequence, or -1 when absent, so callers
// can compare with plain <.
func (e Event) Seq() int {
	if e.EditSequence == nil {
		return -1
	}
	return *e.EditSequence
}

// FileFor returns the file entry matching path. Paths match exactly or
// by suffix in either direction, since events may record absolute paths
// while blame uses repo-relative ones.
func (e Event) FileFor(path string) *FileEdit {
	for i := range e.Files {
		if PathsMatch(e.Files[i].Path, path) {
			return &e.Files[i]
		}
	}
	return nil
}

// TouchesAny reports whether the event touches any of the given paths.
func (e Event) TouchesAny(paths map[string]bool) bool {
	for _, fe := range e.Files {
		if paths[fe.Path] {
			return true
		}
	}
	return false
}

// PathsMatch compares an event-recorded path against a query path.
func PathsMatch(eventPath, queryPath string) bool {
	if eventPath == queryPath {
		return true
	}
	if eventPath == "" || queryPath == "" {
		return false
	}
	return strings.HasSuffix(eventPath, queryPath) || strings.HasSuffix(queryPath, eventPath)
}

var providerPrefixes = []struct {
	prefix   string
	provider string
}{
	{"claude-", "anthropic"},
	{"gpt-", "openai"},
	{"o1", "openai"},
	{"o3", "openai"},
	{"gemini-", "google"},
}

// NormalizeModelID adds the provider prefix to bare model names.
func NormalizeModelID(model string) string {
	if model == "" || strings.Contains(model, "/") {
		return model
	}
	for _, p := range providerPrefixes {
		if strings.HasPrefix(model, p.prefix) {
			return p.provider + "/" + model
		}
	}
	return model
}
