package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentblame/agentblame/agentblame/eventstore"
	"github.com/agentblame/agentblame/agentblame/gitsource"
)

// The hook commands run inside user-facing git operations. They must
// never fail the surrounding commit or rebase, so every error path here
// degrades to a log line and exit 0.

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "post-commit hook: link HEAD to contributing events and build its ledger",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		eng, _, err := engine(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, "agentblame link:", err)
			return
		}
		cl := eng.CreateCommitLink(context.Background())
		if cl != nil {
			fmt.Printf("linked %d event(s) to %s\n", len(cl.EventIDs), short(cl.CommitSHA))
		}
	},
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "post-rewrite hook: remap ledger commit shas after rebase/amend",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		eng, _, err := engine(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, "agentblame rewrite:", err)
			return
		}
		mapping := readRewriteMapping(os.Stdin)
		if len(mapping) == 0 {
			return
		}
		n := eng.RemapLedgers(mapping)
		fmt.Printf("remapped %d ledger(s)\n", n)
	},
}

// readRewriteMapping parses git's post-rewrite stdin format: one
// "old-sha new-sha [extra-info]" pair per line.
func readRewriteMapping(r io.Reader) map[string]string {
	mapping := map[string]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 {
			mapping[fields[0]] = fields[1]
		}
	}
	return mapping
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "append an edit event read as JSON from stdin",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		eng, _, err := engine(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, "agentblame record:", err)
			return
		}
		raw, err := io.ReadAll(os.Stdin)
		if err != nil || len(strings.TrimSpace(string(raw))) == 0 {
			return
		}
		var e eventstore.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			fmt.Fprintln(os.Stderr, "agentblame record: invalid event json:", err)
			return
		}
		e = eventstore.NewEvent(e)
		if e.Revision == "" {
			repoDir, _ := cmd.Flags().GetString("repo")
			if repoDir == "" {
				repoDir, _ = os.Getwd()
			}
			if head, err := gitsource.New(repoDir).Head(context.Background()); err == nil {
				e.Revision = head
			}
		}
		if err := eng.Events().AppendEvent(e); err != nil {
			fmt.Fprintln(os.Stderr, "agentblame record:", err)
			return
		}
		fmt.Println(e.ID)
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(recordCmd)
}
