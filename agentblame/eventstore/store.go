package eventstore

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"

	"github.com/agentblame/agentblame/agentblame/pkg/logger"
)

const (
	eventsFile = "events.jsonl"
	linksFile  = "commit-links.jsonl"
)

// Store is the append-only JSONL event store for one project. Corrupt
// lines are skipped individually, never aborting a read.
type Store struct {
	dir    string
	logger logger.Logger
}

func NewStore(dir string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{dir: dir, logger: log}
}

// Dir returns the store's data directory.
func (s *Store) Dir() string {
	return s.dir
}

// AllEvents returns every stored event in arrival order.
func (s *Store) AllEvents() []Event {
	var res []Event
	s.readLines(eventsFile, func(line []byte) {
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			s.logger.Debug("skipping malformed event record", "err", err)
			return
		}
		if e.ID == "" {
			return
		}
		res = append(res, e)
	})
	return res
}

// EventByID returns the event with the given id, or nil.
func (s *Store) EventByID(id string) *Event {
	for _, e := range s.AllEvents() {
		if e.ID == id {
			return &e
		}
	}
	return nil
}

// EventsByRevision returns events recorded at the given VCS revision, in
// arrival order.
func (s *Store) EventsByRevision(revision string) []Event {
	if revision == "" {
		return nil
	}
	var res []Event
	for _, e := range s.AllEvents() {
		if e.Revision == revision {
			res = append(res, e)
		}
	}
	return res
}

// EventsInWindow returns events whose timestamp falls in [from, to].
func (s *Store) EventsInWindow(from, to time.Time) []Event {
	var res []Event
	for _, e := range s.AllEvents() {
		if e.Timestamp.IsZero() {
			continue
		}
		if !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
			res = append(res, e)
		}
	}
	return res
}

// CommitLink returns the link for a commit, or nil. Later entries for
// the same commit replace earlier ones.
func (s *Store) CommitLink(commitSHA string) *CommitLink {
	var found *CommitLink
	s.readLines(linksFile, func(line []byte) {
		var cl CommitLink
		if err := json.Unmarshal(line, &cl); err != nil {
			s.logger.Debug("skipping malformed commit link", "err", err)
			return
		}
		if cl.CommitSHA == commitSHA {
			c := cl
			found = &c
		}
	})
	return found
}

// AppendEvent appends an event record.
func (s *Store) AppendEvent(e Event) error {
	return s.appendLine(eventsFile, e)
}

// AppendCommitLink appends a commit link record.
func (s *Store) AppendCommitLink(cl CommitLink) error {
	return s.appendLine(linksFile, cl)
}

func (s *Store) appendLine(name string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}

// readLines streams non-empty, structurally valid JSON lines of a store
// file to fn. A missing file is an empty store.
func (s *Store) readLines(name string, fn func(line []byte)) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("cannot open store file", "file", name, "err", err)
		}
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			s.logger.Debug("skipping invalid json line", "file", name)
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		fn(cp)
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("stopped reading store file", "file", name, "err", err)
	}
}
