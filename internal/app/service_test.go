package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	service "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/domain/matching"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func roster(n int) []model.Participant {
	skills := []string{"beginner", "intermediate", "advanced", "expert", "master"}
	genders := []string{"female", "male", "non-binary"}
	out := make([]model.Participant, n)
	for i := range out {
		out[i] = model.Participant{
			ID:        fmt.Sprintf("p-%d", i+1),
			Number:    i + 1,
			TimeSlots: []string{"mon-am"},
			Skill:     skills[i%len(skills)],
			Gender:    genders[i%len(genders)],
		}
	}
	return out
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should report sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats.DefaultSize, ShouldEqual, 4)
			So(stats.MaxParticipants, ShouldEqual, matching.MaxParticipants)
			So(stats.QueueSize, ShouldEqual, 1024)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithStoreCapacity(100),
			service.WithDefaultTeamSize(5),
			service.WithMaxParticipants(40),
		)

		Convey("Then it should carry the options", func() {
			stats := svc.GetStats()
			So(stats.WorkerCount, ShouldEqual, 8)
			So(stats.QueueSize, ShouldEqual, 50_000)
			So(stats.DedupeSize, ShouldEqual, 25_000)
			So(stats.StoreCapacity, ShouldEqual, 100)
			So(stats.DefaultSize, ShouldEqual, 5)
			So(stats.MaxParticipants, ShouldEqual, 40)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		defer svc.Stop()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should not be started", func() {
				So(stats.Started, ShouldBeFalse)
				So(stats.Profiles, ShouldBeEmpty)
			})
		})

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats.Started, ShouldBeTrue)
				So(stats.WorkerCount, ShouldEqual, 2)
				So(stats.Profiles, ShouldContain, "balanced")
			})

			Convey("And starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And after stopping, calls are refused", func() {
				svc.Stop()
				So(svc.GetStats().Started, ShouldBeFalse)

				_, err := svc.Submit(ctx, types.MatchRequest{Participants: roster(4)})
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, err = svc.Match(ctx, types.MatchRequest{Participants: roster(4)})
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service with an invalid profile", t, func() {
		svc := service.New(service.WithProfiles(map[string]map[string]float64{
			"broken": {"charisma": 1},
		}))

		Convey("Then Start should fail", func() {
			err := svc.Start(context.Background())
			So(err, ShouldNotBeNil)
			So(svc.GetStats().Started, ShouldBeFalse)
		})
	})
}

func TestService_Validation(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1), service.WithMaxParticipants(10))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the roster has a single participant", func() {
			_, err := svc.Submit(ctx, types.MatchRequest{Participants: roster(1)})

			Convey("Then it should be rejected as insufficient", func() {
				So(errors.Is(err, matching.ErrInsufficientParticipants), ShouldBeTrue)
			})
		})

		Convey("When the team size is one", func() {
			_, err := svc.Match(ctx, types.MatchRequest{TeamSize: 1, Participants: roster(4)})

			Convey("Then it should be rejected as an invalid size", func() {
				So(errors.Is(err, matching.ErrInvalidTargetSize), ShouldBeTrue)
			})
		})

		Convey("When the roster exceeds the participant limit", func() {
			_, err := svc.Submit(ctx, types.MatchRequest{Participants: roster(11)})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})

		Convey("When two participants share an id", func() {
			ps := roster(4)
			ps[3].ID = ps[0].ID
			_, err := svc.Submit(ctx, types.MatchRequest{Participants: ps})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "duplicate participant id")
			})
		})

		Convey("When two participants share a number", func() {
			ps := roster(4)
			ps[2].Number = ps[1].Number
			_, err := svc.Match(ctx, types.MatchRequest{Participants: ps})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})

		Convey("When a participant has no id", func() {
			ps := roster(4)
			ps[1].ID = ""
			_, err := svc.Submit(ctx, types.MatchRequest{Participants: ps})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})
	})
}

func TestService_Match(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1), service.WithShuffleSeed(7))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When matching nine participants inline without a team size", func() {
			res, err := svc.Match(ctx, types.MatchRequest{Participants: roster(9)})

			Convey("Then the default size and profile should apply", func() {
				So(err, ShouldBeNil)
				So(res.Profile, ShouldEqual, "balanced")
				So(res.ProfileFound, ShouldBeTrue)
				So(len(res.Teams), ShouldEqual, 3)
				for _, team := range res.Teams {
					So(len(team.Members), ShouldEqual, 3)
				}
			})
		})

		Convey("When matching under an unknown profile", func() {
			res, err := svc.Match(ctx, types.MatchRequest{Profile: "role_focused", Participants: roster(6)})

			Convey("Then it should fall back to the default", func() {
				So(err, ShouldBeNil)
				So(res.Profile, ShouldEqual, "balanced")
				So(res.ProfileFound, ShouldBeFalse)
			})
		})
	})
}

func TestService_MatchBounds(t *testing.T) {
	Convey("Given a service with one synchronous slot", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithSyncConcurrency(1), service.WithShuffleSeed(3))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		So(svc.GetStats().SyncSlots, ShouldEqual, 1)

		Convey("When a second inline matching arrives while the first runs", func() {
			firstCtx, cancelFirst := context.WithCancel(ctx)
			first := make(chan error, 1)
			go func() {
				_, err := svc.Match(firstCtx, types.MatchRequest{TeamSize: 2, Participants: roster(matching.MaxParticipants)})
				first <- err
			}()
			time.Sleep(20 * time.Millisecond)

			_, err := svc.Match(ctx, types.MatchRequest{Participants: roster(8)})
			cancelFirst()
			firstErr := <-first

			Convey("Then it is refused as busy and the first run is cut short", func() {
				So(errors.Is(err, service.ErrBusy), ShouldBeTrue)
				So(firstErr == nil || errors.Is(firstErr, context.Canceled), ShouldBeTrue)
			})

			Convey("And the slot is free again afterwards", func() {
				_, err := svc.Match(ctx, types.MatchRequest{Participants: roster(8)})
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a service whose inline runs must finish within a millisecond", t, func() {
		svc := service.New(service.WithWorkerCount(1), service.WithSyncTimeout(time.Millisecond))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When matching a full-size roster inline", func() {
			_, err := svc.Match(context.Background(), types.MatchRequest{Participants: roster(matching.MaxParticipants)})

			Convey("Then the run is abandoned at the deadline", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})

	Convey("Given a roster above the participant limit", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When matching it inline", func() {
			_, err := svc.Match(context.Background(), types.MatchRequest{Participants: roster(matching.MaxParticipants + 1)})

			Convey("Then it is rejected before any work starts", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})
	})
}

func TestService_Profiles(t *testing.T) {
	Convey("Given a service with a configured profile", t, func() {
		svc := service.New(service.WithProfiles(map[string]map[string]float64{
			"role_focused": {"role": 3, "skill": 1},
		}))

		Convey("Before starting, the built-in profiles are listed", func() {
			names := make([]string, 0)
			for _, p := range svc.Profiles() {
				names = append(names, p.Name)
			}
			So(names, ShouldContain, "balanced")
			So(names, ShouldNotContain, "role_focused")
		})

		Convey("After starting, the configured profile is listed", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			defer svc.Stop()

			names := make([]string, 0)
			for _, p := range svc.Profiles() {
				names = append(names, p.Name)
			}
			So(names, ShouldContain, "role_focused")
		})
	})
}
