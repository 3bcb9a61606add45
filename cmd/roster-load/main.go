package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/huddle/internal/rosterload"
)

const defaultDeadline = 10 * time.Minute

var flags struct {
	cfg       rosterload.Config
	deadline  time.Duration
	logFile   string
	logFormat string
}

// rootCmd submits generated rosters to a running service and verifies results.
var rootCmd = &cobra.Command{
	Use:   "roster-load",
	Short: "Load and verify a running huddle service",
	Long: `Generate random rosters, submit them concurrently to POST /matchings,
poll every run until it finishes and verify each result:

  - every participant is placed exactly once
  - the team count matches the plan for the roster and team size
  - team sizes are at least two and differ by at most one

Final statistics are printed to stdout as JSON; logs go to stderr.`,
	SilenceUsage: true,
	RunE:         runLoad,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&flags.cfg.Runs, "runs", rosterload.DefaultRuns, "Number of matching requests to submit")
	f.IntVar(&flags.cfg.Participants, "participants", rosterload.DefaultParticipants, "Participants per roster")
	f.IntVar(&flags.cfg.TeamSize, "team-size", rosterload.DefaultTeamSize, "Requested team size")
	f.StringVar(&flags.cfg.Profile, "profile", "", "Weight profile (default: service default)")
	f.IntVar(&flags.cfg.Workers, "workers", rosterload.DefaultWorkers, "Concurrent HTTP callers")
	f.DurationVar(&flags.cfg.Timeout, "timeout", rosterload.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&flags.cfg.Wait, "wait", rosterload.DefaultWait, "How long to wait for runs to finish")
	f.DurationVar(&flags.cfg.PollInterval, "poll", rosterload.DefaultPollInterval, "Delay between status polls")
	f.IntVar(&flags.cfg.Retries, "retries", rosterload.DefaultRetries, "Resubmissions after 429; negative disables")
	f.Float64Var(&flags.cfg.OmitRate, "omit-rate", rosterload.DefaultOmitRate, "Chance an optional attribute is left blank")
	f.Int64Var(&flags.cfg.Seed, "seed", 0, "Roster generator seed (0: from clock)")
	f.StringVar(&flags.cfg.OutputFile, "output", "", "Write generated rosters to this JSON file")
	f.DurationVar(&flags.deadline, "deadline", defaultDeadline, "Overall deadline for the load run")
	f.StringVar(&flags.logFile, "log", "", "Also write logs to this file")
	f.StringVar(&flags.logFormat, "log-format", "text", "Log format: text or json")
}

func runLoad(cmd *cobra.Command, _ []string) error {
	log, closeLog, err := rosterload.SetupLogging(flags.logFile, flags.logFormat)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.deadline)
	defer cancel()

	stats, runErr := rosterload.Run(ctx, flags.cfg, log)
	if stats != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
	}
	return runErr
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
