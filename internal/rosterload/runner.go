// Package rosterload drives a running matching service with generated
// rosters and checks every result it gets back.
package rosterload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes the complete load run: health check, generation, concurrent
// submission, polling and verification. Stats are returned even on error.
func Run(ctx context.Context, cfg Config, log logger.Logger) (*Stats, error) { //nolint:gocritic // hugeParam: read once
	cfg = cfg.withDefaults()
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting roster load",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("runs", cfg.Runs),
		logger.Int("participants", cfg.Participants),
		logger.Int("teamSize", cfg.TeamSize),
		logger.String("profile", cfg.Profile),
		logger.Int("workers", cfg.Workers),
	)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, err
	}

	// Step 2: Generate rosters
	rosters := NewGenerator(cfg.Seed, cfg.OmitRate).Rosters(cfg.Runs, cfg.Participants)
	stats.RostersGenerated = len(rosters)

	// Step 3: Submit concurrently
	runIDs, err := submitAll(ctx, cfg, client, rosters, stats, log)
	if err != nil {
		return stats, fmt.Errorf("submission aborted: %w", err)
	}

	// Step 4: Poll and verify
	if err := awaitAll(ctx, cfg, client, rosters, runIDs, stats, log); err != nil {
		return stats, fmt.Errorf("polling aborted: %w", err)
	}

	// Step 5: Save rosters
	if cfg.OutputFile != "" {
		if err := saveRosters(cfg.OutputFile, rosters); err != nil {
			log.Warn(ctx, "failed to save rosters", logger.Error(err))
		} else {
			log.Info(ctx, "rosters saved to file", logger.String("filename", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)

	switch {
	case stats.VerificationFailures > 0:
		return stats, fmt.Errorf("%w: %d runs", ErrVerification, stats.VerificationFailures)
	case stats.TimedOut > 0:
		return stats, fmt.Errorf("%w: %d runs", ErrIncomplete, stats.TimedOut)
	}
	return stats, nil
}

// submitAll posts every roster and returns the run id per roster index.
// Rosters whose submission failed keep an empty id.
func submitAll(ctx context.Context, cfg Config, client *Client, rosters [][]model.Participant, stats *Stats, log logger.Logger) ([]string, error) { //nolint:gocritic // hugeParam: read only
	runIDs := make([]string, len(rosters))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Workers)
	for i, roster := range rosters {
		eg.Go(func() error {
			req := types.MatchRequest{
				RequestID:    uuid.NewString(),
				TeamSize:     cfg.TeamSize,
				Profile:      cfg.Profile,
				Participants: roster,
			}
			sub, backoffs, err := submitWithRetry(egCtx, cfg, client, req)

			mu.Lock()
			defer mu.Unlock()
			stats.Submitted++
			stats.Backpressured += backoffs
			switch {
			case err != nil:
				stats.SubmitFailures++
				log.Warn(egCtx, "submission failed", logger.Int("roster", i), logger.Error(err))
			case sub.Duplicate:
				stats.Duplicates++
				runIDs[i] = sub.RunID
			default:
				stats.Accepted++
				runIDs[i] = sub.RunID
			}
			return nil
		})
	}
	_ = eg.Wait()
	return runIDs, ctx.Err()
}

// submitWithRetry resubmits after 429 with a linear backoff.
func submitWithRetry(ctx context.Context, cfg Config, client *Client, req types.MatchRequest) (types.Submission, int, error) { //nolint:gocritic // hugeParam: read only
	backoffs := 0
	for {
		sub, err := client.Submit(ctx, req)
		if !errors.Is(err, ErrBackpressure) || backoffs >= cfg.Retries {
			return sub, backoffs, err
		}
		backoffs++
		select {
		case <-ctx.Done():
			return types.Submission{}, backoffs, ctx.Err()
		case <-time.After(time.Duration(backoffs) * cfg.PollInterval):
		}
	}
}

// awaitAll polls every submitted run until it finishes or cfg.Wait passes,
// then verifies the finished results.
func awaitAll(ctx context.Context, cfg Config, client *Client, rosters [][]model.Participant, runIDs []string, stats *Stats, log logger.Logger) error { //nolint:gocritic // hugeParam: read only
	waitCtx, cancel := context.WithTimeout(ctx, cfg.Wait)
	defer cancel()

	var (
		mu          sync.Mutex
		totalsSum   float64
		totalsCount int
		spreadSum   float64
	)

	eg, egCtx := errgroup.WithContext(waitCtx)
	eg.SetLimit(cfg.Workers)
	for i, id := range runIDs {
		if id == "" {
			continue
		}
		eg.Go(func() error {
			run, err := pollRun(egCtx, cfg, client, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				stats.TimedOut++
			case err != nil:
				stats.RunFailures++
				log.Warn(egCtx, "polling failed", logger.String("run_id", id), logger.Error(err))
			case run.Status == types.StatusFailed:
				stats.RunFailures++
				log.Warn(egCtx, "run failed", logger.String("run_id", id), logger.String("error", run.Error))
			default:
				stats.Completed++
				if verr := Verify(rosters[i], cfg.TeamSize, run.Result); verr != nil {
					stats.VerificationFailures++
					log.Error(egCtx, "verification failed", logger.String("run_id", id), logger.Error(verr))
					return nil
				}
				res := run.Result
				stats.Teams += len(res.Teams)
				stats.Swaps += res.Swaps
				if !res.ProfileFound {
					stats.FallbackProfiles++
				}
				for _, team := range res.Teams {
					totalsSum += team.Total
					totalsCount++
				}
				spreadSum += res.Summary.StdDev
			}
			return nil
		})
	}
	_ = eg.Wait()

	if totalsCount > 0 {
		stats.MeanTeamTotal = totalsSum / float64(totalsCount)
	}
	if verified := stats.Completed - stats.VerificationFailures; verified > 0 {
		stats.MeanSpread = spreadSum / float64(verified)
	}
	return ctx.Err()
}

// pollRun fetches id until its status is terminal.
func pollRun(ctx context.Context, cfg Config, client *Client, id string) (types.Run, error) { //nolint:gocritic // hugeParam: read only
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		run, err := client.Run(ctx, id)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.Run{}, ctxErr
		}
		if err != nil {
			return types.Run{}, err
		}
		if run.Status.Terminal() {
			return run, nil
		}
		select {
		case <-ctx.Done():
			return types.Run{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// saveRosters writes the generated rosters as a JSON array of arrays.
func saveRosters(filename string, rosters [][]model.Participant) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(rosters, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rosters: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write rosters: %w", err)
	}
	return nil
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var runsPerSecond float64
	if stats.Duration > 0 {
		runsPerSecond = float64(stats.Completed) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("rostersGenerated", stats.RostersGenerated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("backpressured", stats.Backpressured),
		logger.Int("submitFailures", stats.SubmitFailures),
		logger.Int("completed", stats.Completed),
		logger.Int("runFailures", stats.RunFailures),
		logger.Int("timedOut", stats.TimedOut),
		logger.Int("verificationFailures", stats.VerificationFailures),
		logger.Float64("meanTeamTotal", stats.MeanTeamTotal),
		logger.Float64("meanSpread", stats.MeanSpread),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("runsPerSecond", runsPerSecond),
	)
}
