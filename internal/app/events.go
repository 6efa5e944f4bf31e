package app

import (
	"context"
	"sync"
	"time"
)

// EventKind names what an Event reports.
type EventKind string

const (
	EventState  EventKind = "state"
	EventTick   EventKind = "tick"
	EventTimeUp EventKind = "time_up"
)

// Event is pushed to subscribers after every observable change.
type Event struct {
	ID          string    `json:"id"`
	Kind        EventKind `json:"kind"`
	State       State     `json:"state"`
	RemainingMs int64     `json:"remainingMs,omitempty"`
	Loser       string    `json:"loser,omitempty"`
}

const subscriberBuffer = 64

type subscriber struct {
	ch        chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.ch)
		close(s.done)
	})
}

// Subscribe registers a subscriber. The channel is closed when ctx ends,
// when unsubscribe is called, when the engine closes, or when the
// subscriber falls too far behind.
func (e *Engine) Subscribe(ctx context.Context) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer), done: make(chan struct{})}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		sub.close()
		return sub.ch, func() {}
	}
	e.subs[sub] = struct{}{}
	e.mu.Unlock()

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			e.mu.Lock()
			delete(e.subs, sub)
			e.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsub()
		case <-sub.done:
		}
	}()
	return sub.ch, unsub
}

// publishLocked fans an event out without blocking; slow subscribers are dropped.
func (e *Engine) publishLocked(ev Event) {
	ev.ID = newEventID()
	ev.State = e.stateLocked()
	for sub := range e.subs {
		select {
		case sub.ch <- ev:
		default:
			delete(e.subs, sub)
			sub.close()
		}
	}
}

func durationMs(d time.Duration) int64 { return d.Milliseconds() }
