package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/agentblame/agentblame/agentblame"
	"github.com/agentblame/agentblame/agentblame/config"
	"github.com/agentblame/agentblame/agentblame/pkg/logger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "agentblame",
	Short:        "per-line AI/human authorship attribution for git repositories",
	SilenceUsage: true,
}

// engine builds an AgentBlame instance for the repo resolved from flags
// and config.
func engine(cmd *cobra.Command) (*agentblame.AgentBlame, config.Config, error) {
	repoDir, _ := cmd.Flags().GetString("repo")
	if repoDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, config.Config{}, err
		}
		repoDir = wd
	}
	cfg, err := config.Load(repoDir)
	if err != nil {
		return nil, cfg, err
	}
	log := logger.NewDefaultLoggerLevel(os.Stderr, cfg.Debug)
	return agentblame.New(agentblame.Opts{
		RepoDir: repoDir,
		DataDir: cfg.DataDir,
		Logger:  log,
	}), cfg, nil
}

func startProfile(cmd *cobra.Command) func() {
	p, _ := cmd.Flags().GetString("profile")
	if p == "" {
		return func() {}
	}
	var stop interface{ Stop() }
	switch p {
	case "cpu":
		stop = profile.Start(profile.CPUProfile, profile.Quiet)
	case "mem":
		stop = profile.Start(profile.MemProfile, profile.Quiet)
	case "trace":
		stop = profile.Start(profile.TraceProfile, profile.Quiet)
	case "block":
		stop = profile.Start(profile.BlockProfile, profile.Quiet)
	case "mutex":
		stop = profile.Start(profile.MutexProfile, profile.Quiet)
	default:
		panic("unexpected profile: " + p)
	}
	return stop.Stop
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().String("repo", "", "git repository to operate on (default: cwd)")
	rootCmd.PersistentFlags().String("profile", "", "one of mem, mutex, cpu, block, trace or empty to disable")
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
