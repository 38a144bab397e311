package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const suspensionReviewTimeout = 30 * time.Second

// SuspensionFlagger raises a notification for every timed suspension that
// has run out.
type SuspensionFlagger interface {
	FlagExpiredSuspensions(ctx context.Context) (int64, error)
}

// SuspensionReviewJob periodically flags expired suspensions. It never
// changes a seller's status; reinstating stays an admin decision.
type SuspensionReviewJob struct {
	sellers  SuspensionFlagger
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSuspensionReviewJob(sellers SuspensionFlagger, interval time.Duration) *SuspensionReviewJob {
	return &SuspensionReviewJob{
		sellers:  sellers,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *SuspensionReviewJob) Start() {
	j.wg.Add(1)
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("suspension review job started")
}

// Stop waits for an in-flight review to finish.
func (j *SuspensionReviewJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.done)
		j.wg.Wait()
		log.Info().Msg("suspension review job stopped")
	})
}

func (j *SuspensionReviewJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.review()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.review()
		}
	}
}

func (j *SuspensionReviewJob) review() {
	ctx, cancel := context.WithTimeout(context.Background(), suspensionReviewTimeout)
	defer cancel()

	count, err := j.sellers.FlagExpiredSuspensions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to review expired suspensions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("flagged expired suspensions")
	}
}
