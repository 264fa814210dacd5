package agentblame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agentblame/agentblame/agentblame/eventstore"
	"github.com/agentblame/agentblame/agentblame/linehash"
)

var scoreTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func scoreEngine(t *testing.T, events ...eventstore.Event) *AgentBlame {
	assert := assert.New(t)
	s := newTestEngine(t, nil)
	for _, e := range events {
		assert.NoError(s.events.AppendEvent(e))
	}
	return s
}

func TestScoreTimestampOnlyNeverAttributed(t *testing.T) {
	assert := assert.New(t)
	// the event is in the window and lists the file, but carries no
	// structural evidence
	ev := eventstore.Event{
		ID:        "e1",
		Timestamp: scoreTime.Add(-time.Hour),
		Files:     []eventstore.FileEdit{{Path: "main.go"}},
	}
	s := scoreEngine(t, ev)
	attr := s.scoreHeuristic(scoreInput{
		file:         "main.go",
		startLine:    1,
		endLine:      3,
		contentLines: []string{"a", "b", "c"},
		commitSHA:    "c1",
		committedAt:  scoreTime,
	}, s.events.AllEvents())
	assert.Equal(0, attr.Tier)
	assert.Empty(attr.EventID)
	assert.Equal(SourceHeuristic, attr.Source)
}

func TestScoreFullEvidenceTierOne(t *testing.T) {
	assert := assert.New(t)
	content := []string{"func add(a, b int) int {", "\treturn a + b", "}"}
	ev := eventstore.Event{
		ID:        "e1",
		Timestamp: scoreTime.Add(-time.Hour),
		Revision:  "c0",
		ModelID:   "anthropic/claude-sonnet-4",
		Files: []eventstore.FileEdit{{
			Path:            "main.go",
			ConversationURL: "https://chat/1",
			Ranges: []eventstore.EditRange{{
				StartLine:   1,
				EndLine:     3,
				ContentHash: linehash.HashBlock(content),
			}},
		}},
	}
	s := scoreEngine(t, ev)
	attr := s.scoreHeuristic(scoreInput{
		file:         "main.go",
		startLine:    1,
		endLine:      3,
		contentLines: content,
		commitSHA:    "c1",
		parentSHA:    "c0",
		committedAt:  scoreTime,
		link:         &eventstore.CommitLink{CommitSHA: "c1", EventIDs: []string{"e1"}},
	}, s.events.AllEvents())

	assert.Equal(1, attr.Tier)
	assert.Equal(1.0, attr.Confidence)
	assert.Equal("e1", attr.EventID)
	assert.Equal("anthropic/claude-sonnet-4", attr.ModelID)
	assert.Equal("https://chat/1", attr.ConversationURL)
	assert.Contains(attr.Signals, SignalCommitLink)
	assert.Contains(attr.Signals, SignalContentHash)
	assert.Contains(attr.Signals, SignalRangeMatch)
}

func TestScoreRangeOnlyWeakTier(t *testing.T) {
	assert := assert.New(t)
	ev := eventstore.Event{
		ID:        "e1",
		Timestamp: scoreTime.Add(-time.Hour),
		Revision:  "c0",
		Files: []eventstore.FileEdit{{
			Path:   "main.go",
			Ranges: []eventstore.EditRange{{StartLine: 1, EndLine: 10}},
		}},
	}
	s := scoreEngine(t, ev)
	attr := s.scoreHeuristic(scoreInput{
		file:         "main.go",
		startLine:    4,
		endLine:      6,
		contentLines: []string{"x", "y", "z"},
		commitSHA:    "c1",
		parentSHA:    "c0",
		committedAt:  scoreTime,
	}, s.events.AllEvents())

	// revision 15 + range 10 + timestamp 5 = tier 5
	assert.Equal(5, attr.Tier)
	assert.Equal("e1", attr.EventID)
}

func TestScoreEventForOtherFileIgnored(t *testing.T) {
	assert := assert.New(t)
	ev := eventstore.Event{
		ID:        "e1",
		Timestamp: scoreTime,
		Revision:  "c0",
		Files: []eventstore.FileEdit{{
			Path:   "other.go",
			Ranges: []eventstore.EditRange{{StartLine: 1, EndLine: 100}},
		}},
	}
	s := scoreEngine(t, ev)
	attr := s.scoreHeuristic(scoreInput{
		file:         "main.go",
		startLine:    1,
		endLine:      3,
		contentLines: []string{"a"},
		commitSHA:    "c1",
		parentSHA:    "c0",
		committedAt:  scoreTime,
	}, s.events.AllEvents())
	assert.Equal(0, attr.Tier)
}

func TestComputeTier(t *testing.T) {
	assert := assert.New(t)
	linkHash := []string{SignalCommitLink, SignalContentHash}
	assert.Equal(1, computeTier(100, linkHash))
	// same score without the corroborating pair stops at tier 2
	assert.Equal(2, computeTier(100, []string{SignalRangeMatch}))
	assert.Equal(2, computeTier(80, nil))
	assert.Equal(3, computeTier(60, nil))
	assert.Equal(4, computeTier(45, nil))
	assert.Equal(5, computeTier(25, nil))
	assert.Equal(6, computeTier(10, nil))
	assert.Equal(0, computeTier(0, linkHash))
}

func TestConfidenceFor(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(1.0, confidenceFor(1))
	assert.Equal(0.999, confidenceFor(2))
	assert.Equal(0.40, confidenceFor(6))
	assert.Equal(0.0, confidenceFor(0))
}

func TestPassesGates(t *testing.T) {
	assert := assert.New(t)
	assert.False(passesGates(nil))
	assert.False(passesGates([]string{SignalTimestamp}))
	assert.False(passesGates([]string{SignalTimestamp, SignalContentHash}))
	assert.False(passesGates([]string{SignalCommitLink}))
	assert.True(passesGates([]string{SignalRangeMatch}))
	assert.True(passesGates([]string{SignalRangeOverlap, SignalTimestamp}))
	assert.True(passesGates([]string{SignalCommitLink, SignalContentHash}))
	assert.True(passesGates([]string{SignalCommitLink, SignalRevisionParent}))
}

func TestRevisionsMatch(t *testing.T) {
	assert := assert.New(t)
	full := "0123456789abcdef0123456789abcdef01234567"
	assert.True(revisionsMatch(full, full))
	assert.True(revisionsMatch(full[:8], full))
	assert.True(revisionsMatch(full, full[:12]))
	assert.False(revisionsMatch(full[:6], full))
	assert.False(revisionsMatch("deadbeef", full))
}

func TestMergeAttributions(t *testing.T) {
	assert := assert.New(t)
	attrs := []Attribution{
		{StartLine: 1, EndLine: 3, Tier: 2, EventID: "e1", Kind: "ai"},
		{StartLine: 4, EndLine: 6, Tier: 2, EventID: "e1", Kind: "ai"},
		{StartLine: 7, EndLine: 9, Tier: 2, EventID: "e2", Kind: "ai"},
	}
	merged := mergeAttributions(attrs)
	assert.Len(merged, 2)
	assert.Equal(1, merged[0].StartLine)
	assert.Equal(6, merged[0].EndLine)
	assert.Equal("e2", merged[1].EventID)
}

func TestMergeAttributionsKindSplits(t *testing.T) {
	assert := assert.New(t)
	attrs := []Attribution{
		{StartLine: 1, EndLine: 3, Kind: "human"},
		{StartLine: 4, EndLine: 6},
	}
	merged := mergeAttributions(attrs)
	assert.Len(merged, 2)
}

func TestMergeAttributionsTierSplits(t *testing.T) {
	assert := assert.New(t)
	attrs := []Attribution{
		{StartLine: 1, EndLine: 3, Tier: 1, EventID: "e1", Kind: "ai"},
		{StartLine: 4, EndLine: 6, Tier: 3, EventID: "e1", Kind: "ai"},
	}
	assert.Len(mergeAttributions(attrs), 2)
}
