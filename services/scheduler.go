// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartTournamentScheduler flips due upcoming tournaments to live every
// interval. The caller owns Shutdown.
func (s *TournamentService) StartTournamentScheduler(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			started, err := s.StartDue(context.Background(), time.Now())
			if err != nil {
				log.Printf("[Scheduler] auto-start failed: %v", err)
				return
			}
			if started > 0 {
				log.Printf("✅ [Scheduler] auto-started %d tournament(s)", started)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
