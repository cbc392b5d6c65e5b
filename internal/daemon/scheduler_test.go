package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	mu     sync.Mutex
	cutoff time.Time
	n      int64
	err    error
}

func (f *fakePruner) Prune(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoff = before
	return f.n, f.err
}

func (f *fakePruner) pruned() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cutoff
}

type fakeRebuilder struct{ calls int }

func (f *fakeRebuilder) Rebuild(context.Context) error {
	f.calls++
	return nil
}

func TestSchedulerPrune(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	t.Run("rebuilds after removing events", func(t *testing.T) {
		p := &fakePruner{n: 4}
		r := &fakeRebuilder{}
		s.prune(24*time.Hour, p, r)
		assert.Equal(t, now.Add(-24*time.Hour), p.cutoff)
		assert.Equal(t, 1, r.calls)
	})

	t.Run("nothing pruned", func(t *testing.T) {
		r := &fakeRebuilder{}
		s.prune(time.Hour, &fakePruner{}, r)
		assert.Zero(t, r.calls)
	})

	t.Run("prune failure", func(t *testing.T) {
		r := &fakeRebuilder{}
		s.prune(time.Hour, &fakePruner{n: 3, err: errors.New("locked")}, r)
		assert.Zero(t, r.calls)
	})
}

func TestSchedulePruneRegistersJob(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	id, err := s.SchedulePrune(time.Hour, 24*time.Hour, &fakePruner{}, &fakeRebuilder{})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.SchedulePrune(0, time.Hour, &fakePruner{}, nil)
	assert.Error(t, err)

	_, err = s.SchedulePrune(time.Hour, time.Hour, nil, &fakeRebuilder{})
	assert.Error(t, err)
}

func TestSchedulePruneWithoutProjection(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	p := &fakePruner{n: 2}
	_, err = s.SchedulePrune(20*time.Millisecond, time.Hour, p, nil)
	require.NoError(t, err)
	s.Start(t.Context())

	assert.Eventually(t, func() bool { return !p.pruned().IsZero() }, 5*time.Second, 10*time.Millisecond)
}
