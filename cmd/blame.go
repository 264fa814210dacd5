package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentblame/agentblame/agentblame"
)

var blameCmd = &cobra.Command{
	Use:   "blame <file>",
	Short: "show AI attribution for the lines of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer startProfile(cmd)()

		eng, cfg, err := engine(cmd)
		if err != nil {
			return err
		}

		opts := agentblame.QueryOpts{MinTier: cfg.MinTier}
		if line, _ := cmd.Flags().GetInt("line"); line > 0 {
			opts.StartLine = line
			opts.EndLine = line
		}
		if rng, _ := cmd.Flags().GetString("range"); rng != "" {
			parts := strings.SplitN(rng, ",", 2)
			if len(parts) != 2 {
				return fmt.Errorf("invalid --range %q, want start,end", rng)
			}
			start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
			end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err1 != nil || err2 != nil || start < 1 || end < start {
				return fmt.Errorf("invalid --range %q, want start,end", rng)
			}
			opts.StartLine = start
			opts.EndLine = end
		}
		if mt, _ := cmd.Flags().GetInt("min-tier"); mt >= 1 && mt <= 6 {
			opts.MinTier = mt
		}

		attrs, err := eng.Attribute(context.Background(), args[0], opts)
		if err != nil {
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			out := struct {
				File         string                   `json:"file"`
				Attributions []agentblame.Attribution `json:"attributions"`
			}{File: args[0], Attributions: attrs}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		printTerminal(args[0], attrs)
		return nil
	},
}

var tierLabels = map[int]func() string{
	1: func() string { return color.GreenString("[Tier 1 ✓✓✓]") },
	2: func() string { return color.GreenString("[Tier 2 ✓✓]") },
	3: func() string { return color.CyanString("[Tier 3 ✓✓]") },
	4: func() string { return color.YellowString("[Tier 4 ✓]") },
	5: func() string { return color.MagentaString("[Tier 5 ~]") },
	6: func() string { return color.HiBlackString("[Tier 6 ?]") },
}

func printTerminal(file string, attrs []agentblame.Attribution) {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Println()
	fmt.Printf("  %s\n\n", bold(file))
	for _, a := range attrs {
		lr := formatLineRange(a.StartLine, a.EndLine)
		if a.Tier == 0 {
			fmt.Printf("  %-12s%s\n", lr, dim("[no ai attribution]"))
			continue
		}
		label := tierLabels[a.Tier]()
		fmt.Printf("  %-12s%s %s\n", lr, label, a.ModelID)
		var details []string
		if a.EventID != "" {
			details = append(details, "event: "+short(a.EventID))
		}
		if a.CommitSHA != "" {
			details = append(details, "commit: "+short(a.CommitSHA))
		}
		if a.Source != "" {
			details = append(details, "source: "+string(a.Source))
		}
		if len(details) > 0 {
			fmt.Printf("              %s\n", dim(strings.Join(details, " | ")))
		}
	}
	fmt.Println()
}

func formatLineRange(start, end int) string {
	if start == end {
		return fmt.Sprintf("L%d", start)
	}
	return fmt.Sprintf("L%d-%d", start, end)
}

func short(s string) string {
	if len(s) > 8 {
		return s[:8] + "..."
	}
	return s
}

func init() {
	blameCmd.Flags().Int("line", 0, "blame a single line")
	blameCmd.Flags().String("range", "", "blame a line range, as start,end")
	blameCmd.Flags().Int("min-tier", 0, "minimum confidence tier to display (1-6)")
	blameCmd.Flags().Bool("json", false, "output JSON instead of terminal format")
	rootCmd.AddCommand(blameCmd)
}
