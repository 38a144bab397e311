package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockFlagger struct {
	calls atomic.Int64
	count int64
	err   error
}

func (m *mockFlagger) FlagExpiredSuspensions(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	return m.count, m.err
}

func TestSuspensionReviewJob_ReviewsImmediatelyAndOnTick(t *testing.T) {
	flagger := &mockFlagger{count: 2}
	job := NewSuspensionReviewJob(flagger, 20*time.Millisecond)

	job.Start()
	assert.Eventually(t, func() bool { return flagger.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	job.Stop()

	calls := flagger.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, calls, flagger.calls.Load(), "no reviews after Stop")
}

func TestSuspensionReviewJob_ErrorsDoNotStopTheJob(t *testing.T) {
	flagger := &mockFlagger{err: errors.New("database unavailable")}
	job := NewSuspensionReviewJob(flagger, 10*time.Millisecond)

	job.Start()
	defer job.Stop()

	assert.Eventually(t, func() bool { return flagger.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestSuspensionReviewJob_StopIsIdempotent(t *testing.T) {
	job := NewSuspensionReviewJob(&mockFlagger{}, time.Hour)
	job.Start()

	assert.NotPanics(t, func() {
		job.Stop()
		job.Stop()
	})
}
