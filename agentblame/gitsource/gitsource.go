// Package gitsource wraps the version-control primitives the attribution
// engine consumes: per-line blame records plus the small set of plumbing
// lookups (parent, author time, diff, file content) needed at commit time.
package gitsource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agentblame/agentblame/agentblame/gitexec"
)

// EmptyTree is git's empty tree object id, used as the diff base for a
// repository's first commit.
const EmptyTree = "4b825dc642cb6eb9a060e54bf899d15f3f4b7b18"

// BlameLine is one line of `git blame --porcelain` output.
type BlameLine struct {
	CommitSHA string
	// OrigLine is the line number in the commit's own version of the file.
	OrigLine int
	// FinalLine is the line number in the blamed (current) version.
	FinalLine  int
	Content    string
	Author     string
	AuthorTime time.Time
	Summary    string
	Filename   string
}

// Reader is the version-history contract consumed by the engine. The git
// implementation below is the only production one; tests substitute fakes.
type Reader interface {
	// Blame returns ordered per-line records for file at HEAD. startLine
	// and endLine restrict the range when both are > 0.
	Blame(ctx context.Context, file string, startLine, endLine int) ([]BlameLine, error)
	// Parent returns the first parent of a commit, or "" for the first
	// commit in history.
	Parent(ctx context.Context, commitSHA string) string
	// AuthorTime returns the author timestamp of a commit, zero if unknown.
	AuthorTime(ctx context.Context, commitSHA string) time.Time
	// Diff returns unified diff text of file between parent and commit.
	Diff(ctx context.Context, parent, commit, file string) (string, error)
	// FileContentAt returns the content of file as committed in commit.
	FileContentAt(ctx context.Context, commit, file string) (string, error)
	// Head returns the current HEAD commit sha.
	Head(ctx context.Context) (string, error)
	// ChangedFiles returns paths changed by commit relative to its parent.
	ChangedFiles(ctx context.Context, commit string) ([]string, error)
}

// Git is the Reader backed by the git command line.
type Git struct {
	RepoDir    string
	gitCommand string
}

func New(repoDir string) *Git {
	return &Git{RepoDir: repoDir, gitCommand: "git"}
}

var _ Reader = (*Git)(nil)

func (s *Git) Blame(ctx context.Context, file string, startLine, endLine int) ([]BlameLine, error) {
	args := []string{"blame", "--porcelain"}
	if startLine > 0 && endLine > 0 {
		args = append(args, "-L", fmt.Sprintf("%v,%v", startLine, endLine))
	}
	args = append(args, "--", file)
	out, err := gitexec.ExecRaw(ctx, s.gitCommand, s.RepoDir, args)
	if err != nil {
		return nil, err
	}
	return parsePorcelain(out), nil
}

func (s *Git) Parent(ctx context.Context, commitSHA string) string {
	out, err := gitexec.ExecString(ctx, s.gitCommand, s.RepoDir, []string{"rev-parse", commitSHA + "^"})
	if err != nil {
		// first commit, or unknown sha: either way there is no parent
		return ""
	}
	return out
}

func (s *Git) AuthorTime(ctx context.Context, commitSHA string) time.Time {
	out, err := gitexec.ExecString(ctx, s.gitCommand, s.RepoDir, []string{"log", "-1", "--format=%aI", commitSHA})
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, out)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *Git) Diff(ctx context.Context, parent, commit, file string) (string, error) {
	if parent == "" {
		parent = EmptyTree
	}
	return gitexec.ExecRaw(ctx, s.gitCommand, s.RepoDir, []string{"diff", parent, commit, "--", file})
}

func (s *Git) FileContentAt(ctx context.Context, commit, file string) (string, error) {
	return gitexec.ExecRaw(ctx, s.gitCommand, s.RepoDir, []string{"show", commit + ":" + file})
}

func (s *Git) Head(ctx context.Context) (string, error) {
	return gitexec.ExecString(ctx, s.gitCommand, s.RepoDir, []string{"rev-parse", "HEAD"})
}

func (s *Git) ChangedFiles(ctx context.Context, commit string) ([]string, error) {
	parent := s.Parent(ctx, commit)
	var args []string
	if parent == "" {
		args = []string{"diff", "--name-only", "--diff-filter=ACMR", EmptyTree, commit}
	} else {
		args = []string{"diff", "--name-only", parent, commit}
	}
	out, err := gitexec.ExecString(ctx, s.gitCommand, s.RepoDir, args)
	if err != nil {
		return nil, err
	}
	var res []string
	for _, f := range strings.Split(out, "\n") {
		f = strings.TrimSpace(f)
		if f != "" {
			res = append(res, f)
		}
	}
	return res, nil
}
