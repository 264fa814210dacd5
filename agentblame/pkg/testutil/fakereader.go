// Package testutil holds shared test fixtures for the engine.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/agentblame/agentblame/agentblame/gitsource"
)

// FakeReader is an in-memory gitsource.Reader for tests.
type FakeReader struct {
	BlameLines  []gitsource.BlameLine
	Parents     map[string]string
	AuthorTimes map[string]time.Time
	// Diffs is keyed by "commit:file".
	Diffs map[string]string
	// Contents is keyed by "commit:file".
	Contents map[string]string
	HeadSHA  string
	// Changed maps commit sha to changed file paths.
	Changed map[string][]string
}

var _ gitsource.Reader = (*FakeReader)(nil)

func (f *FakeReader) Blame(ctx context.Context, file string, startLine, endLine int) ([]gitsource.BlameLine, error) {
	if startLine <= 0 || endLine <= 0 {
		return f.BlameLines, nil
	}
	var res []gitsource.BlameLine
	for _, l := range f.BlameLines {
		if l.FinalLine >= startLine && l.FinalLine <= endLine {
			res = append(res, l)
		}
	}
	return res, nil
}

func (f *FakeReader) Parent(ctx context.Context, commitSHA string) string {
	return f.Parents[commitSHA]
}

func (f *FakeReader) AuthorTime(ctx context.Context, commitSHA string) time.Time {
	return f.AuthorTimes[commitSHA]
}

func (f *FakeReader) Diff(ctx context.Context, parent, commit, file string) (string, error) {
	d, ok := f.Diffs[commit+":"+file]
	if !ok {
		return "", fmt.Errorf("no diff for %v:%v", commit, file)
	}
	return d, nil
}

func (f *FakeReader) FileContentAt(ctx context.Context, commit, file string) (string, error) {
	c, ok := f.Contents[commit+":"+file]
	if !ok {
		return "", fmt.Errorf("no content for %v:%v", commit, file)
	}
	return c, nil
}

func (f *FakeReader) Head(ctx context.Context) (string, error) {
	if f.HeadSHA == "" {
		return "", fmt.Errorf("no head")
	}
	return f.HeadSHA, nil
}

func (f *FakeReader) ChangedFiles(ctx context.Context, commit string) ([]string, error) {
	return f.Changed[commit], nil
}
