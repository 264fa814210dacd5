// Package agentblame attributes lines of a committed file to the agent
// session or human author that produced them. Deterministic per-commit
// ledgers are consulted first; heuristic multi-signal scoring covers the
// rest of history.
package agentblame

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/agentblame/agentblame/agentblame/eventstore"
	"github.com/agentblame/agentblame/agentblame/gitsource"
	"github.com/agentblame/agentblame/agentblame/ledger"
	"github.com/agentblame/agentblame/agentblame/pkg/logger"
)

// DefaultDataDir is the per-project store directory, relative to the
// repository root.
const DefaultDataDir = ".agentblame"

// Opts is configuration for running the engine on a single repo.
type Opts struct {
	// RepoDir is the git repository to run queries against.
	RepoDir string

	// DataDir is where events, commit links and ledgers are stored.
	// Defaults to RepoDir/.agentblame.
	DataDir string

	// Logger object for info and debug.
	Logger logger.Logger
}

// AgentBlame runs attribution on a single repo.
type AgentBlame struct {
	opts    Opts
	logger  logger.Logger
	reader  gitsource.Reader
	events  *eventstore.Store
	ledgers *ledger.Store
}

func New(opts Opts) *AgentBlame {
	if opts.Logger == nil {
		opts.Logger = logger.NewDefaultLogger(os.Stderr)
	}
	if opts.DataDir == "" {
		opts.DataDir = filepath.Join(opts.RepoDir, DefaultDataDir)
	}
	s := &AgentBlame{}
	s.opts = opts
	s.logger = opts.Logger
	s.reader = gitsource.New(opts.RepoDir)
	s.events = eventstore.NewStore(opts.DataDir, opts.Logger)
	s.ledgers = ledger.NewStore(opts.DataDir, opts.Logger)
	return s
}

// NewWithCollaborators wires explicit collaborators. Used by tests to
// substitute a fake history reader.
func NewWithCollaborators(reader gitsource.Reader, events *eventstore.Store, ledgers *ledger.Store, log logger.Logger) *AgentBlame {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AgentBlame{
		logger:  log,
		reader:  reader,
		events:  events,
		ledgers: ledgers,
	}
}

// Events exposes the underlying event store, for the recording surface.
func (s *AgentBlame) Events() *eventstore.Store {
	return s.events
}

// BuildLedger builds and persists the attribution ledger for a commit
// (HEAD when commitSHA is empty). It runs inside a post-commit hook and
// must never fail the surrounding commit: every error degrades to "no
// ledger" and is only logged.
func (s *AgentBlame) BuildLedger(ctx context.Context, commitSHA string) *ledger.Ledger {
	if commitSHA == "" {
		head, err := s.reader.Head(ctx)
		if err != nil {
			s.logger.Error("ledger build: cannot resolve HEAD", "err", err)
			return nil
		}
		commitSHA = head
	}
	b := ledger.NewBuilder(s.reader, s.events, s.logger)
	l, err := b.Build(ctx, commitSHA)
	if err != nil {
		s.logger.Error("ledger build failed", "commit", commitSHA, "err", err)
		return nil
	}
	if l == nil {
		s.logger.Debug("nothing to attribute", "commit", commitSHA)
		return nil
	}
	if err := s.ledgers.Append(l); err != nil {
		s.logger.Error("ledger persist failed", "commit", commitSHA, "err", err)
		return nil
	}
	s.logger.Debug("ledger built", "commit", commitSHA, "files", len(l.Files), "events", len(l.EventIDs))
	return l
}

// RemapLedgers rewrites ledger commit and parent shas after a history
// rewrite. Hook-safe: errors are logged and reported as zero remapped.
func (s *AgentBlame) RemapLedgers(oldToNew map[string]string) int {
	n, err := s.ledgers.Remap(oldToNew)
	if err != nil {
		s.logger.Error("ledger remap failed", "err", err)
		return 0
	}
	return n
}

// CreateCommitLink links HEAD to the events recorded at its parent
// revision that touch its changed files. A ledger build is always
// attempted first, so a commit with no agent events still gets an
// all-human ledger. Returns nil when no events matched.
func (s *AgentBlame) CreateCommitLink(ctx context.Context) *eventstore.CommitLink {
	commitSHA, err := s.reader.Head(ctx)
	if err != nil {
		s.logger.Error("commit link: cannot resolve HEAD", "err", err)
		return nil
	}
	parentSHA := s.reader.Parent(ctx, commitSHA)
	committedAt := s.reader.AuthorTime(ctx, commitSHA)
	changed, err := s.reader.ChangedFiles(ctx, commitSHA)
	if err != nil || len(changed) == 0 {
		return nil
	}

	s.BuildLedger(ctx, commitSHA)

	if parentSHA == "" {
		return nil
	}
	changedSet := map[string]bool{}
	for _, f := range changed {
		changedSet[f] = true
	}
	var eventIDs []string
	for _, e := range s.events.EventsByRevision(parentSHA) {
		if e.TouchesAny(changedSet) {
			eventIDs = append(eventIDs, e.ID)
		}
	}
	if len(eventIDs) == 0 {
		return nil
	}

	cl := eventstore.CommitLink{
		CommitSHA:    commitSHA,
		ParentSHA:    parentSHA,
		EventIDs:     eventIDs,
		FilesChanged: changed,
		CommittedAt:  committedAt.UTC(),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.events.AppendCommitLink(cl); err != nil {
		s.logger.Error("commit link persist failed", "commit", commitSHA, "err", err)
		return nil
	}
	return &cl
}
