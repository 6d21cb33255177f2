package main

import (
	"sync"
	"time"
)

// timers owns the session's cancellable timers. Firings are delivered as
// events on fire so they are reduced on the session goroutine like anything
// else.
type timers struct {
	mu       sync.Mutex
	notice   *time.Timer
	redirect *time.Timer
	fire     chan Event
	done     chan struct{}
	stopped  bool
}

func newTimers() *timers {
	return &timers{
		fire: make(chan Event),
		done: make(chan struct{}),
	}
}

// scheduleNotice replaces any pending notice clear, so an older timer can
// never erase a newer message.
func (t *timers) scheduleNotice(seq int, after time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if t.notice != nil {
		t.notice.Stop()
	}
	t.notice = time.AfterFunc(after, func() { t.deliver(NoticeExpired{Seq: seq}) })
}

func (t *timers) scheduleRedirect(after time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.redirect != nil {
		return
	}
	t.redirect = time.AfterFunc(after, func() { t.deliver(RedirectDue{}) })
}

func (t *timers) deliver(ev Event) {
	select {
	case t.fire <- ev:
	case <-t.done:
	}
}

func (t *timers) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	if t.notice != nil {
		t.notice.Stop()
	}
	if t.redirect != nil {
		t.redirect.Stop()
	}
	close(t.done)
}
