package ledger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/agentblame/agentblame/agentblame/eventstore"
	"github.com/agentblame/agentblame/agentblame/gitsource"
	"github.com/agentblame/agentblame/agentblame/linehash"
	"github.com/agentblame/agentblame/agentblame/pkg/logger"
	"github.com/agentblame/agentblame/agentblame/unidiff"
)

// Time window around the commit's author time for candidate events whose
// revision does not match the parent. Agent sessions routinely run for
// hours before a commit; edits after the commit are near-impossible to
// belong to it.
const (
	windowBefore = 24 * time.Hour
	windowAfter  = 1 * time.Hour
)

// EventSource supplies candidate events to the builder.
type EventSource interface {
	AllEvents() []eventstore.Event
}

// Builder constructs a commit's attribution ledger from its diff and the
// recorded edit events.
type Builder struct {
	Reader gitsource.Reader
	Events EventSource
	Logger logger.Logger
}

func NewBuilder(reader gitsource.Reader, events EventSource, log logger.Logger) *Builder {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Builder{Reader: reader, Events: events, Logger: log}
}

// claim is the event evidence attached to a line.
type claim struct {
	eventID         string
	modelID         string
	conversationURL string
	seq             int
}

// Build produces the ledger for commitSHA. Returns nil (no error) when
// the commit changed nothing attributable. Determinism: events are
// walked in store order and every tie-break is by edit sequence then
// first-seen, so rebuilding a commit yields a byte-identical ledger.
func (b *Builder) Build(ctx context.Context, commitSHA string) (*Ledger, error) {
	if commitSHA == "" {
		return nil, errors.New("empty commit sha")
	}
	parentSHA := b.Reader.Parent(ctx, commitSHA)
	committedAt := b.Reader.AuthorTime(ctx, commitSHA)

	changed, err := b.Reader.ChangedFiles(ctx, commitSHA)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return nil, nil
	}

	revisionMatched, timestampMatched := b.findCandidates(parentSHA, committedAt)
	allCandidates := append(append([]eventstore.Event{}, revisionMatched...), timestampMatched...)

	usedEventIDs := map[string]bool{}
	files := map[string][]LineRange{}

	for _, path := range changed {
		content, err := b.Reader.FileContentAt(ctx, commitSHA, path)
		if err != nil {
			// deleted or binary file: nothing to attribute
			b.Logger.Debug("no committed content", "file", path, "err", err)
			continue
		}
		diff, err := b.Reader.Diff(ctx, parentSHA, commitSHA, path)
		if err != nil {
			b.Logger.Debug("no diff", "file", path, "err", err)
			continue
		}
		addedLines := unidiff.Lines(unidiff.AddedRanges(diff))
		if len(addedLines) == 0 {
			continue
		}

		lineHashes := linehash.FileLineHashes(content)

		// Hash evidence is position-independent, so every candidate
		// contributes. Range claims are positional and only valid from
		// events that observed the parent revision.
		hashIndex := buildHashIndex(allCandidates, path)
		claimIndex := buildRangeClaimIndex(revisionMatched, path)

		// Nothing claims this file directly: agent-authored code may have
		// been relocated before committing. Fall back to hashes from all
		// files, preferring revision-matched events.
		if len(hashIndex) == 0 && len(claimIndex) == 0 {
			hashIndex = buildHashIndex(revisionMatched, "")
			if len(hashIndex) == 0 {
				hashIndex = buildHashIndex(timestampMatched, "")
			}
		}

		var ranges []LineRange
		for _, ln := range addedLines {
			h, ok := lineHashes[ln]
			if !ok {
				continue
			}
			kind := KindHuman
			var c claim
			switch {
			case linehash.IsTrivial(h):
				// blank lines hash identically everywhere; never evidence
			case lookupClaim(hashIndex, h, &c):
				kind = KindAI
				usedEventIDs[c.eventID] = true
			case len(claimIndex[ln]) > 0:
				kind = KindMixed
				c = bestClaim(claimIndex[ln])
				usedEventIDs[c.eventID] = true
			}
			ranges = appendLine(ranges, ln, kind, c)
		}
		if len(ranges) > 0 {
			files[path] = ranges
		}
	}

	if len(files) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(usedEventIDs))
	for id := range usedEventIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if ids == nil {
		ids = []string{}
	}

	return &Ledger{
		Version:     "1.0",
		CommitSHA:   commitSHA,
		ParentSHA:   parentSHA,
		CommittedAt: committedAt.UTC(),
		EventIDs:    ids,
		Files:       files,
	}, nil
}

// findCandidates partitions events into revision-matched (recorded at
// exactly the parent revision, so their ranges describe the pre-commit
// file state) and timestamp-matched (time-window only, hashes usable but
// never ranges). An event appears in at most one list.
func (b *Builder) findCandidates(parentSHA string, committedAt time.Time) (revisionMatched, timestampMatched []eventstore.Event) {
	all := b.Events.AllEvents()
	seen := map[string]bool{}

	if parentSHA != "" {
		for _, e := range all {
			if e.Revision == parentSHA && !seen[e.ID] {
				revisionMatched = append(revisionMatched, e)
				seen[e.ID] = true
			}
		}
	}
	if !committedAt.IsZero() {
		from := committedAt.Add(-windowBefore)
		to := committedAt.Add(windowAfter)
		for _, e := range all {
			if seen[e.ID] || e.Timestamp.IsZero() {
				continue
			}
			if !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
				timestampMatched = append(timestampMatched, e)
				seen[e.ID] = true
			}
		}
	}
	return
}

// buildHashIndex maps line content hash values to the claiming event.
// path == "" disables path filtering (the cross-file fallback). When two
// events claim the same hash the higher edit sequence wins; equal or
// absent sequences keep the first seen.
func buildHashIndex(events []eventstore.Event, path string) map[string]claim {
	index := map[string]claim{}
	for _, e := range events {
		for _, fe := range e.Files {
			if path != "" && !eventstore.PathsMatch(fe.Path, path) {
				continue
			}
			for _, r := range fe.Ranges {
				for _, lh := range r.LineHashes {
					if lh.Hash == "" {
						continue
					}
					key := linehash.Value(lh.Hash)
					if existing, ok := index[key]; ok {
						if !(e.Seq() > existing.seq) {
							continue
						}
					}
					index[key] = claim{
						eventID:         e.ID,
						modelID:         e.ModelID,
						conversationURL: fe.ConversationURL,
						seq:             e.Seq(),
					}
				}
			}
		}
	}
	return index
}

// buildRangeClaimIndex maps line numbers to the events whose recorded
// ranges cover them.
func buildRangeClaimIndex(events []eventstore.Event, path string) map[int][]claim {
	index := map[int][]claim{}
	for _, e := range events {
		for _, fe := range e.Files {
			if !eventstore.PathsMatch(fe.Path, path) {
				continue
			}
			for _, r := range fe.Ranges {
				if r.StartLine <= 0 || r.EndLine < r.StartLine {
					continue
				}
				c := claim{
					eventID:         e.ID,
					modelID:         e.ModelID,
					conversationURL: fe.ConversationURL,
					seq:             e.Seq(),
				}
				for ln := r.StartLine; ln <= r.EndLine; ln++ {
					index[ln] = append(index[ln], c)
				}
			}
		}
	}
	return index
}

func lookupClaim(index map[string]claim, hash string, out *claim) bool {
	c, ok := index[linehash.Value(hash)]
	if ok {
		*out = c
	}
	return ok
}

// bestClaim picks the claim with the highest edit sequence; first seen
// wins ties.
func bestClaim(claims []claim) claim {
	best := claims[0]
	for _, c := range claims[1:] {
		if c.seq > best.seq {
			best = c
		}
	}
	return best
}

// appendLine extends the last range when the line is contiguous and
// shares kind and event, otherwise starts a new range.
func appendLine(ranges []LineRange, ln int, kind Kind, c claim) []LineRange {
	eventID := ""
	modelID := ""
	convURL := ""
	if kind != KindHuman {
		eventID = c.eventID
		modelID = c.modelID
		convURL = c.conversationURL
	}
	if n := len(ranges); n > 0 {
		last := &ranges[n-1]
		if last.EndLine+1 == ln && last.Type == kind && last.EventID == eventID {
			last.EndLine = ln
			return ranges
		}
	}
	return append(ranges, LineRange{
		StartLine:       ln,
		EndLine:         ln,
		Type:            kind,
		EventID:         eventID,
		ModelID:         modelID,
		ConversationURL: convURL,
	})
}
