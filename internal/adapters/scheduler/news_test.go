package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefq/briefq/internal/domain/model"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	notes []string
	err   error
}

func (f *fakeSubmitter) SubmitNews(_ context.Context, note string) (*model.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, note)
	if f.err != nil {
		return nil, f.err
	}
	return &model.SubmitResult{JobID: "e-1", DBID: "r-1"}, nil
}

func (f *fakeSubmitter) submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.notes...)
}

type fakeLock struct {
	claimed map[int64]bool
	err     error
}

func (l *fakeLock) AcquireFire(_ context.Context, at time.Time) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	minute := at.Unix() / 60
	if l.claimed[minute] {
		return false, nil
	}
	l.claimed[minute] = true
	return true, nil
}

func TestNewNewsScheduler_Validation(t *testing.T) {
	_, err := NewNewsScheduler(NewsSchedulerOptions{Spec: "0 * * * *"})
	require.Error(t, err)

	_, err = NewNewsScheduler(NewsSchedulerOptions{Submitter: &fakeSubmitter{}, Spec: "every hour"})
	require.Error(t, err)
}

func TestNewsScheduler_Next(t *testing.T) {
	s, err := NewNewsScheduler(NewsSchedulerOptions{Submitter: &fakeSubmitter{}, Spec: "0 * * * *"})
	require.NoError(t, err)

	at := time.Date(2025, 3, 1, 12, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC), s.Next(at))
}

func TestNewsScheduler_FireOncePerMinuteAcrossReplicas(t *testing.T) {
	lock := &fakeLock{claimed: map[int64]bool{}}
	sub := &fakeSubmitter{}
	a, err := NewNewsScheduler(NewsSchedulerOptions{Submitter: sub, Lock: lock, Spec: "0 * * * *"})
	require.NoError(t, err)
	b, err := NewNewsScheduler(NewsSchedulerOptions{Submitter: sub, Lock: lock, Spec: "0 * * * *"})
	require.NoError(t, err)

	at := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	assert.True(t, a.Fire(context.Background(), at))
	assert.False(t, b.Fire(context.Background(), at.Add(2*time.Second)))
	assert.True(t, b.Fire(context.Background(), at.Add(time.Hour)))

	assert.Equal(t, []string{NoteCron, NoteCron}, sub.submitted())
}

func TestNewsScheduler_FireWithoutLock(t *testing.T) {
	sub := &fakeSubmitter{}
	s, err := NewNewsScheduler(NewsSchedulerOptions{Submitter: sub, Lock: &fakeLock{err: errors.New("redis down")}, Spec: "0 * * * *"})
	require.NoError(t, err)

	assert.True(t, s.Fire(context.Background(), time.Now()))
	assert.Len(t, sub.submitted(), 1)
}

func TestNewsScheduler_FireSubmitError(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("queue down")}
	s, err := NewNewsScheduler(NewsSchedulerOptions{Submitter: sub, Spec: "0 * * * *"})
	require.NoError(t, err)

	assert.False(t, s.Fire(context.Background(), time.Now()))
}

func TestNewsScheduler_RunSubmitsOnStartup(t *testing.T) {
	sub := &fakeSubmitter{}
	s, err := NewNewsScheduler(NewsSchedulerOptions{Submitter: sub, Spec: "0 0 1 1 *", RunOnStartup: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sub.submitted()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	assert.Equal(t, []string{NoteStartup}, sub.submitted())
}
