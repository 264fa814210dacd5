package eventstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agentblame/agentblame/agentblame/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	return NewStore(t.TempDir(), logger.NewNopLogger())
}

func TestAppendAndReadEvents(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)
	e1 := NewEvent(Event{
		Tool:     Tool{Name: "claude-code", Version: "2.0"},
		ModelID:  "claude-sonnet-4",
		Revision: "abc123",
		Files:    []FileEdit{{Path: "main.go"}},
	})
	e2 := NewEvent(Event{
		Tool:  Tool{Name: "cursor"},
		Files: []FileEdit{{Path: "lib.go"}},
	})
	assert.NoError(s.AppendEvent(e1))
	assert.NoError(s.AppendEvent(e2))

	events := s.AllEvents()
	assert.Len(events, 2)
	assert.Equal(e1.ID, events[0].ID)
	assert.Equal(e2.ID, events[1].ID)
	assert.Equal("anthropic/claude-sonnet-4", events[0].ModelID)
}

func TestEventByID(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)
	e := NewEvent(Event{Tool: Tool{Name: "t"}, Files: []FileEdit{{Path: "a.go"}}})
	assert.NoError(s.AppendEvent(e))
	found := s.EventByID(e.ID)
	assert.NotNil(found)
	assert.Equal(e.ID, found.ID)
	assert.Nil(s.EventByID("nope"))
}

func TestEventsByRevision(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)
	assert.NoError(s.AppendEvent(NewEvent(Event{Revision: "r1", Files: []FileEdit{{Path: "a"}}})))
	assert.NoError(s.AppendEvent(NewEvent(Event{Revision: "r2", Files: []FileEdit{{Path: "a"}}})))
	assert.NoError(s.AppendEvent(NewEvent(Event{Revision: "r1", Files: []FileEdit{{Path: "b"}}})))

	assert.Len(s.EventsByRevision("r1"), 2)
	assert.Len(s.EventsByRevision("r2"), 1)
	assert.Empty(s.EventsByRevision(""))
}

func TestEventsInWindow(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{-2 * time.Hour, 0, 30 * time.Minute, 3 * time.Hour} {
		e := NewEvent(Event{Files: []FileEdit{{Path: "a"}}})
		e.Timestamp = base.Add(offset)
		assert.NoError(s.AppendEvent(e))
	}
	got := s.EventsInWindow(base.Add(-time.Hour), base.Add(time.Hour))
	assert.Len(got, 2)
}

func TestMalformedLinesSkipped(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	s := NewStore(dir, logger.NewNopLogger())
	e := NewEvent(Event{Files: []FileEdit{{Path: "a.go"}}})
	assert.NoError(s.AppendEvent(e))

	f, err := os.OpenFile(filepath.Join(dir, "events.jsonl"), os.O_WRONLY|os.O_APPEND, 0644)
	assert.NoError(err)
	_, err = f.WriteString("{truncated\n\n[1,2,3]\n")
	assert.NoError(err)
	assert.NoError(f.Close())

	e2 := NewEvent(Event{Files: []FileEdit{{Path: "b.go"}}})
	assert.NoError(s.AppendEvent(e2))

	events := s.AllEvents()
	assert.Len(events, 2)
	assert.Equal(e.ID, events[0].ID)
	assert.Equal(e2.ID, events[1].ID)
}

func TestCommitLinkLastWriteWins(t *testing.T) {
	assert := assert.New(t)
	s := newTestStore(t)
	assert.NoError(s.AppendCommitLink(CommitLink{CommitSHA: "c1", EventIDs: []string{"e1"}}))
	assert.NoError(s.AppendCommitLink(CommitLink{CommitSHA: "c1", EventIDs: []string{"e2", "e3"}}))

	link := s.CommitLink("c1")
	assert.NotNil(link)
	assert.Equal([]string{"e2", "e3"}, link.EventIDs)
	assert.Nil(s.CommitLink("c2"))
}

func TestMissingStoreIsEmpty(t *testing.T) {
	assert := assert.New(t)
	s := NewStore(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	assert.Empty(s.AllEvents())
	assert.Nil(s.CommitLink("c1"))
}

func TestNewEventDefaults(t *testing.T) {
	assert := assert.New(t)
	e := NewEvent(Event{})
	assert.NotEmpty(e.ID)
	assert.False(e.Timestamp.IsZero())
	assert.Equal("1.0", e.Version)
}

func TestSeq(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(-1, Event{}.Seq())
	n := 7
	assert.Equal(7, Event{EditSequence: &n}.Seq())
}

func TestFileForSuffixMatch(t *testing.T) {
	assert := assert.New(t)
	e := Event{Files: []FileEdit{{Path: "/home/dev/proj/internal/svc/main.go"}}}
	assert.NotNil(e.FileFor("internal/svc/main.go"))
	assert.NotNil(e.FileFor("/home/dev/proj/internal/svc/main.go"))
	assert.Nil(e.FileFor("other.go"))
}

func TestNormalizeModelID(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("anthropic/claude-opus-4", NormalizeModelID("claude-opus-4"))
	assert.Equal("openai/gpt-4o", NormalizeModelID("gpt-4o"))
	assert.Equal("openai/o3-mini", NormalizeModelID("o3-mini"))
	assert.Equal("google/gemini-pro", NormalizeModelID("gemini-pro"))
	assert.Equal("anthropic/claude-opus-4", NormalizeModelID("anthropic/claude-opus-4"))
	assert.Equal("mystery-model", NormalizeModelID("mystery-model"))
	assert.Equal("", NormalizeModelID(""))
}
