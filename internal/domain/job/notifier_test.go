package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefq/briefq/internal/domain/model"
)

type stubWaiter struct {
	calls chan model.QueueName
	err   error
	sleep time.Duration
}

func (s *stubWaiter) WaitForNotification(ctx context.Context, queue model.QueueName) error {
	select {
	case s.calls <- queue:
	default:
	}

	if s.sleep > 0 {
		timer := time.NewTimer(s.sleep)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}

func waitFor[T any](t *testing.T, ch <-chan T, msg string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(500 * time.Millisecond):
		t.Fatal(msg)
	}
	var zero T
	return zero
}

func TestNewNotifierRequiresWaiter(t *testing.T) {
	notifier, err := NewNotifier(NotifierOptions{})
	require.ErrorIs(t, err, ErrWaiterRequired)
	assert.Nil(t, notifier)
}

func TestNotifier_SubscribeReceivesNotifications(t *testing.T) {
	waiter := &stubWaiter{calls: make(chan model.QueueName, 4), sleep: 5 * time.Millisecond}
	notifier, err := NewNotifier(NotifierOptions{Waiter: waiter})
	require.NoError(t, err)
	defer notifier.StopAll()

	unsub, ch := notifier.Subscribe(model.QueueMain)
	defer unsub()

	assert.Equal(t, model.QueueMain, waitFor(t, waiter.calls, "expected waiter to be invoked"))
	waitFor(t, ch, "expected notification to be delivered")
}

func TestNotifier_UnsubscribeClosesChannel(t *testing.T) {
	waiter := &stubWaiter{calls: make(chan model.QueueName, 1), sleep: 5 * time.Millisecond}
	notifier, err := NewNotifier(NotifierOptions{Waiter: waiter})
	require.NoError(t, err)

	unsub, ch := notifier.Subscribe(model.QueueNews)
	waitFor(t, waiter.calls, "expected waiter to be invoked")

	unsub()
	unsub() // second call is a no-op

	deadline := time.After(500 * time.Millisecond)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("expected channel to close after unsubscribe")
		}
	}
}

func TestNotifier_StopAllClosesChannels(t *testing.T) {
	waiter := &stubWaiter{calls: make(chan model.QueueName, 2), err: errors.New("boom")}
	notifier, err := NewNotifier(NotifierOptions{Waiter: waiter, Backoff: 10 * time.Millisecond})
	require.NoError(t, err)

	_, chMain := notifier.Subscribe(model.QueueMain)
	_, chGoogle := notifier.Subscribe(model.QueueGoogleSearch)
	waitFor(t, waiter.calls, "expected first listener")
	waitFor(t, waiter.calls, "expected second listener")

	notifier.StopAll()

	for _, ch := range []<-chan struct{}{chMain, chGoogle} {
		closed := false
		deadline := time.After(500 * time.Millisecond)
		for !closed {
			select {
			case _, ok := <-ch:
				closed = !ok
			case <-deadline:
				t.Fatal("expected channel to close after StopAll")
			}
		}
	}
}
