// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// jobBudget bounds each scheduled run, matching the hosted-cron invocation
// limit the HTTP variants live under.
const jobBudget = 60 * time.Second

// JobContext derives the bounded context a scheduled job runs under.
func JobContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, jobBudget)
}

// StartScheduler wires the in-process cron jobs. The same service methods
// back the /api/cron/* endpoints, so a hosted scheduler can replace this
// without behavior drift.
func StartScheduler(mastery *MasteryService, leaderboard *LeaderboardService, recognition *RecognitionService, intel *IntelService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	runBounded := func(name string, fn func(context.Context) error) func() {
		return func() {
			ctx, cancel := JobContext(context.Background())
			defer cancel()
			if err := fn(ctx); err != nil {
				log.Printf("[Scheduler] %s failed: %v", name, err)
			}
		}
	}

	// Hourly: progression pass (leaderboard first so mastery reads fresh
	// aggregates), then the recognition scan.
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(runBounded("mastery-update", func(ctx context.Context) error {
			if err := leaderboard.Recompute(ctx); err != nil {
				return err
			}
			return mastery.RunMasteryUpdate(ctx)
		})),
	)
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(runBounded("recognitions", recognition.RunRecognitionScan)),
	)

	// Every minute: release due intel drops.
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(runBounded("intel-release", intel.ReleaseDueDrops)),
	)

	// Daily at 18:00: deadline reminders.
	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(18, 0, 0))),
		gocron.NewTask(runBounded("deadline-reminders", intel.SendDeadlineReminders)),
	)

	sched.Start()
	return sched, nil
}
