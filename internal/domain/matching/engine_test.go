package matching_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/huddle/internal/domain/matching"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/scoring"
	"github.com/okian/huddle/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Info(context.Context, string, ...logger.Field)  {}
func (l *recordingLogger) Error(context.Context, string, ...logger.Field) {}
func (l *recordingLogger) Debug(context.Context, string, ...logger.Field) {}
func (l *recordingLogger) Fatal(context.Context, string, ...logger.Field) {}
func (l *recordingLogger) Named(string) logger.Logger                     { return l }
func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func pick(rng *rand.Rand, values []string) string { return values[rng.Intn(len(values))] }

func participants(n int) []model.Participant {
	rng := rand.New(rand.NewSource(int64(n)))
	out := make([]model.Participant, n)
	for i := range out {
		out[i] = model.Participant{
			ID:        fmt.Sprintf("p%03d", i),
			Number:    i + 1,
			TimeSlots: []string{pick(rng, model.TimeSlots)},
			Skill:     pick(rng, model.Skills),
			Role:      pick(rng, model.Roles),
			Major:     pick(rng, model.Majors),
			Goal:      pick(rng, model.Goals),
			Continent: pick(rng, model.Continents),
			Gender:    pick(rng, model.Genders),
		}
	}
	return out
}

func memberIDs(res matching.Result) []string {
	var ids []string
	for _, t := range res.Teams {
		for _, m := range t.Members {
			ids = append(ids, m.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func rosterIDs(ps []model.Participant) []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	sort.Strings(ids)
	return ids
}

func TestRun_Boundaries(t *testing.T) {
	ctx := context.Background()
	engine := matching.New(matching.WithSeed(1))

	Convey("Given rosters at the edge of what can be matched", t, func() {
		Convey("When one participant is submitted", func() {
			_, err := engine.Run(ctx, participants(1), 4, "balanced")

			Convey("Then the run fails with insufficient participants", func() {
				So(errors.Is(err, matching.ErrInsufficientParticipants), ShouldBeTrue)
			})
		})

		Convey("When no participants are submitted", func() {
			_, err := engine.Run(ctx, nil, 4, "balanced")

			Convey("Then the run fails with insufficient participants", func() {
				So(errors.Is(err, matching.ErrInsufficientParticipants), ShouldBeTrue)
			})
		})

		Convey("When two participants are submitted with target size 4", func() {
			res, err := engine.Run(ctx, participants(2), 4, "balanced")

			Convey("Then a single team of two is produced", func() {
				So(err, ShouldBeNil)
				So(res.Teams, ShouldHaveLength, 1)
				So(res.Teams[0].Members, ShouldHaveLength, 2)
				So(res.Teams[0].Number, ShouldEqual, 1)
				So(res.Summary.Count, ShouldEqual, 1)
				So(res.Summary.StdDev, ShouldEqual, 0)
			})
		})

		Convey("When the target size is below two", func() {
			_, err := engine.Run(ctx, participants(6), 1, "balanced")

			Convey("Then the run fails with an invalid target size", func() {
				So(errors.Is(err, matching.ErrInvalidTargetSize), ShouldBeTrue)
			})
		})
	})
}

func TestRun_PartitionAndBalance(t *testing.T) {
	ctx := context.Background()
	engine := matching.New(matching.WithSeed(42))

	Convey("Given rosters of several sizes", t, func() {
		for _, tc := range []struct{ n, target int }{{12, 4}, {14, 4}, {5, 3}, {10, 3}, {13, 4}, {7, 2}, {21, 5}} {
			roster := participants(tc.n)
			snapshot := participants(tc.n)

			res, err := engine.Run(ctx, roster, tc.target, "diversity_focused")

			Convey(fmt.Sprintf("Then %d participants at size %d form a balanced partition", tc.n, tc.target), func() {
				So(err, ShouldBeNil)
				So(cmp.Diff(rosterIDs(roster), memberIDs(res)), ShouldBeEmpty)
				So(cmp.Diff(snapshot, roster), ShouldBeEmpty)

				lo, hi := tc.n, 0
				for i, team := range res.Teams {
					So(team.Number, ShouldEqual, i+1)
					So(len(team.Members), ShouldBeGreaterThanOrEqualTo, 2)
					lo = min(lo, len(team.Members))
					hi = max(hi, len(team.Members))
					So(team.TopFactors, ShouldHaveLength, matching.TopFactorCount)
					So(team.Total, ShouldAlmostEqual, mustProfile("diversity_focused").Weighted(scoring.Evaluate(team.Members)), 1e-9)
				}
				So(hi-lo, ShouldBeLessThanOrEqualTo, 1)
				So(res.Profile, ShouldEqual, "diversity_focused")
				So(res.ProfileFound, ShouldBeTrue)
				So(res.Summary.Count, ShouldEqual, len(res.Teams))
				So(res.Summary.Min, ShouldBeLessThanOrEqualTo, res.Summary.Mean)
				So(res.Summary.Max, ShouldBeGreaterThanOrEqualTo, res.Summary.Mean)
			})
		}
	})
}

func mustProfile(name string) scoring.Profile {
	p, ok := scoring.DefaultRegistry().Lookup(name)
	if !ok {
		panic("missing profile " + name)
	}
	return p
}

func TestRun_UnknownProfile(t *testing.T) {
	Convey("Given an engine with a recording logger", t, func() {
		rec := &recordingLogger{}
		engine := matching.New(matching.WithSeed(3), matching.WithLogger(rec))

		Convey("When an unknown profile is requested", func() {
			res, err := engine.Run(context.Background(), participants(8), 4, "role_focused")

			Convey("Then the default profile is used, flagged and logged", func() {
				So(err, ShouldBeNil)
				So(res.Profile, ShouldEqual, scoring.DefaultProfile)
				So(res.ProfileFound, ShouldBeFalse)
				So(rec.warns, ShouldHaveLength, 1)
			})
		})

		Convey("When a custom registry provides the profile", func() {
			reg, err := scoring.NewRegistry(scoring.WithProfile("role_focused", map[string]float64{"role": 3, "skill": 1}))
			So(err, ShouldBeNil)
			engine := matching.New(matching.WithSeed(3), matching.WithLogger(rec), matching.WithRegistry(reg))

			res, err := engine.Run(context.Background(), participants(8), 4, "role_focused")

			Convey("Then it resolves without a warning", func() {
				So(err, ShouldBeNil)
				So(res.Profile, ShouldEqual, "role_focused")
				So(res.ProfileFound, ShouldBeTrue)
				So(rec.warns, ShouldBeEmpty)
			})
		})
	})
}

func TestRun_Deterministic(t *testing.T) {
	Convey("Given two engines with the same seed", t, func() {
		a := matching.New(matching.WithSeed(99))
		b := matching.New(matching.WithSeed(99))

		Convey("When both match the same roster", func() {
			ra, errA := a.Run(context.Background(), participants(17), 4, "skill_focused")
			rb, errB := b.Run(context.Background(), participants(17), 4, "skill_focused")

			Convey("Then the results are identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(cmp.Diff(ra, rb), ShouldBeEmpty)
			})
		})
	})
}

func TestRun_Concurrent(t *testing.T) {
	engine := matching.New(matching.WithSeed(5))
	roster := participants(16)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.Run(context.Background(), roster, 4, "balanced"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent run failed: %v", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	engine := matching.New(matching.WithSeed(3))

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When running a matching", func() {
			_, err := engine.Run(ctx, participants(12), 4, "balanced")

			Convey("Then the context error is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a deadline shorter than the swap search", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()

		Convey("When matching a full-size roster", func() {
			_, err := engine.Run(ctx, participants(matching.MaxParticipants), 4, "balanced")

			Convey("Then the search is abandoned with the deadline error", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}

// envelopeBudget is what a synchronous request can spend on one roster.
const envelopeBudget = 15 * time.Second

func TestRun_WithinEnvelope(t *testing.T) {
	if testing.Short() {
		t.Skip("matches full-size rosters")
	}

	engine := matching.New(matching.WithSeed(1))
	roster := participants(matching.MaxParticipants)

	type outcome struct {
		size    int
		res     matching.Result
		err     error
		elapsed time.Duration
	}
	var outcomes []outcome
	for _, size := range []int{4, 2} {
		start := time.Now()
		res, err := engine.Run(context.Background(), roster, size, "balanced")
		outcomes = append(outcomes, outcome{size: size, res: res, err: err, elapsed: time.Since(start)})
	}

	Convey("Given a roster at the participant limit", t, func() {
		for _, o := range outcomes {
			Convey(fmt.Sprintf("Then team size %d finishes inside the request budget", o.size), func() {
				So(o.err, ShouldBeNil)
				So(cmp.Diff(rosterIDs(roster), memberIDs(o.res)), ShouldBeEmpty)
				So(o.elapsed < envelopeBudget, ShouldBeTrue)
			})
		}
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given team totals", t, func() {
		Convey("When summarizing a known set", func() {
			s := matching.Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})

			Convey("Then population statistics are reported", func() {
				So(s.Count, ShouldEqual, 8)
				So(s.Mean, ShouldAlmostEqual, 5, 1e-9)
				So(s.StdDev, ShouldAlmostEqual, 2, 1e-9)
				So(s.Min, ShouldEqual, 2)
				So(s.Max, ShouldEqual, 9)
			})
		})

		Convey("When summarizing nothing", func() {
			So(matching.Summarize(nil), ShouldResemble, matching.Summary{})
		})
	})
}
