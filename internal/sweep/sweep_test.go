package sweep

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls int32
	n     int64
	err   error
}

func (f *fakeSweeper) Sweep(ctx context.Context) (int64, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.n, f.err
}

func TestScheduler_RunsRegisteredJob(t *testing.T) {
	s := New()
	fake := &fakeSweeper{n: 3}
	require.NoError(t, s.Register("test-job", "@every 50ms", fake))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fake.calls) >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_RejectsInvalidCronExpression(t *testing.T) {
	s := New()
	err := s.Register("bad-job", "not-a-cron-expr", &fakeSweeper{})
	assert.Error(t, err)
}

func TestScheduler_SurvivesSweepError(t *testing.T) {
	s := New()
	fake := &fakeSweeper{err: errors.New("boom")}
	require.NoError(t, s.Register("failing-job", "@every 50ms", fake))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fake.calls) >= 1
	}, time.Second, 10*time.Millisecond)
}
