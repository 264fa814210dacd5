// Package gitexec runs git commands for a single repository.
package gitexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Exec runs a git command in repoDir and returns its stdout.
func Exec(ctx context.Context, gitCommand string, repoDir string, args []string) (io.ReadCloser, error) {
	buf := bytes.NewBuffer(nil)
	err := ExecIntoWriter(ctx, buf, gitCommand, repoDir, args)
	if err != nil {
		return nil, err
	}
	return noopReadCloser{buf}, nil
}

// ExecString runs a git command and returns stdout with surrounding
// whitespace trimmed.
func ExecString(ctx context.Context, gitCommand string, repoDir string, args []string) (string, error) {
	buf := bytes.NewBuffer(nil)
	err := ExecIntoWriter(ctx, buf, gitCommand, repoDir, args)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// ExecRaw runs a git command and returns stdout untrimmed. Needed for
// file content, where trailing newlines are significant.
func ExecRaw(ctx context.Context, gitCommand string, repoDir string, args []string) (string, error) {
	buf := bytes.NewBuffer(nil)
	err := ExecIntoWriter(ctx, buf, gitCommand, repoDir, args)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func ExecIntoWriter(ctx context.Context, wr io.Writer, gitCommand string, repoDir string, args []string) error {
	c := exec.CommandContext(ctx, gitCommand, args...)
	c.Dir = repoDir
	c.Stdout = wr
	stderr := bytes.NewBuffer(nil)
	c.Stderr = stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("failed executing git %v: %v (%v)", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

type noopReadCloser struct {
	io.Reader
}

func (noopReadCloser) Close() error {
	return nil
}
