package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunNow(t *testing.T) {
	s := NewScheduler(nil, time.Second)
	var runs int32
	require.NoError(t, s.Add("evict", "@every 1h", func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))

	require.NoError(t, s.RunNow("evict"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	assert.Error(t, s.RunNow("missing"))
}

func TestSchedulerRejectsDuplicatesAndBadSpecs(t *testing.T) {
	s := NewScheduler(nil, 0)
	noop := func(context.Context) error { return nil }
	require.NoError(t, s.Add("a", "@every 1m", noop))
	assert.Error(t, s.Add("a", "@every 1m", noop))
	assert.Error(t, s.Add("b", "not a spec", noop))
}

func TestSchedulerReportsTaskError(t *testing.T) {
	s := NewScheduler(nil, time.Second)
	boom := errors.New("boom")
	require.NoError(t, s.Add("fail", "@every 1h", func(context.Context) error { return boom }))
	assert.ErrorIs(t, s.RunNow("fail"), boom)
}

func TestSchedulerFiresOnSchedule(t *testing.T) {
	s := NewScheduler(nil, time.Second)
	fired := make(chan struct{}, 1)
	require.NoError(t, s.Add("tick", "@every 1s", func(context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}))
	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("task did not fire")
	}
}
