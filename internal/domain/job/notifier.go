// Package job holds queue-delivery policies shared by the queue store and the worker runners.
package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/briefq/briefq/internal/domain/model"
)

// ErrWaiterRequired indicates a notifier cannot be constructed without a waiter.
var ErrWaiterRequired = errors.New("notifier waiter is required")

// Waiter blocks until an entry is published on a queue or ctx ends.
type Waiter interface {
	WaitForNotification(ctx context.Context, queue model.QueueName) error
}

// Notifier fans queue wake-ups out to idle workers.
type Notifier interface {
	Subscribe(queue model.QueueName) (func(), <-chan struct{})
	StopAll()
}

// NotifierOptions configure DefaultNotifier.
type NotifierOptions struct {
	Waiter Waiter
	// WaitWindow bounds a single LISTEN wait; subscribers are woken when it elapses.
	WaitWindow time.Duration
	// Backoff is the pause after a failed wait.
	Backoff time.Duration
}

// DefaultNotifier runs one listener goroutine per subscribed queue.
type DefaultNotifier struct {
	waiter     Waiter
	waitWindow time.Duration
	backoff    time.Duration

	mu        sync.Mutex
	subs      map[model.QueueName]map[chan struct{}]struct{}
	listeners map[model.QueueName]context.CancelFunc
}

// NewNotifier constructs a DefaultNotifier.
func NewNotifier(opts NotifierOptions) (*DefaultNotifier, error) {
	if opts.Waiter == nil {
		return nil, ErrWaiterRequired
	}

	waitWindow := opts.WaitWindow
	if waitWindow <= 0 {
		waitWindow = 30 * time.Second
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}

	return &DefaultNotifier{
		waiter:     opts.Waiter,
		waitWindow: waitWindow,
		backoff:    backoff,
		subs:       make(map[model.QueueName]map[chan struct{}]struct{}),
		listeners:  make(map[model.QueueName]context.CancelFunc),
	}, nil
}

// Subscribe registers a wake-up channel for queue. The returned func unsubscribes and closes it.
func (n *DefaultNotifier) Subscribe(queue model.QueueName) (func(), <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.listeners[queue]; !ok {
		ctx, cancel := context.WithCancel(context.Background())
		n.listeners[queue] = cancel
		go n.listen(ctx, queue)
	}

	ch := make(chan struct{}, 1)
	if n.subs[queue] == nil {
		n.subs[queue] = make(map[chan struct{}]struct{})
	}
	n.subs[queue][ch] = struct{}{}

	var once sync.Once
	unsub := func() {
		once.Do(func() { n.unsubscribe(queue, ch) })
	}
	return unsub, ch
}

func (n *DefaultNotifier) unsubscribe(queue model.QueueName, ch chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	subscribers := n.subs[queue]
	if _, ok := subscribers[ch]; !ok {
		return
	}
	delete(subscribers, ch)
	drainAndClose(ch)

	if len(subscribers) > 0 {
		return
	}
	delete(n.subs, queue)
	if cancel, ok := n.listeners[queue]; ok {
		cancel()
		delete(n.listeners, queue)
	}
}

// StopAll stops every listener and closes every subscriber channel.
func (n *DefaultNotifier) StopAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for queue, cancel := range n.listeners {
		cancel()
		delete(n.listeners, queue)
	}
	for queue, subscribers := range n.subs {
		for ch := range subscribers {
			drainAndClose(ch)
		}
		delete(n.subs, queue)
	}
}

func (n *DefaultNotifier) listen(ctx context.Context, queue model.QueueName) {
	for ctx.Err() == nil {
		waitCtx, cancel := context.WithTimeout(ctx, n.waitWindow)
		err := n.waiter.WaitForNotification(waitCtx, queue)
		cancel()

		// Wake on timeout too so workers re-poll for delayed retries.
		n.broadcast(queue)

		if err == nil || ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			continue
		}
		timer := time.NewTimer(n.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (n *DefaultNotifier) broadcast(queue model.QueueName) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.subs[queue] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// drainAndClose empties the buffer first so receivers observe the close immediately.
func drainAndClose(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}

var _ Notifier = (*DefaultNotifier)(nil)
