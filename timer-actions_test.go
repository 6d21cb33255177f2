package main

import (
	"testing"
	"time"
)

func nextFire(t *testing.T, tm *timers) Event {
	t.Helper()
	select {
	case ev := <-tm.fire:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
		return nil
	}
}

func TestNoticeTimerReplacesPending(t *testing.T) {
	tm := newTimers()
	defer tm.stop()

	tm.scheduleNotice(1, time.Hour)
	tm.scheduleNotice(2, time.Millisecond)
	if ev := nextFire(t, tm); ev != (NoticeExpired{Seq: 2}) {
		t.Errorf("fired %#v", ev)
	}
}

func TestRedirectFiresOnce(t *testing.T) {
	tm := newTimers()
	defer tm.stop()

	tm.scheduleRedirect(time.Millisecond)
	tm.scheduleRedirect(time.Millisecond)
	if ev := nextFire(t, tm); ev != (RedirectDue{}) {
		t.Errorf("fired %#v", ev)
	}
	select {
	case ev := <-tm.fire:
		t.Errorf("second redirect fired: %#v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestStoppedTimersStaySilent(t *testing.T) {
	tm := newTimers()
	tm.scheduleNotice(1, time.Hour)
	tm.stop()
	tm.stop()
	tm.scheduleRedirect(time.Millisecond)

	select {
	case ev := <-tm.fire:
		t.Errorf("fired after stop: %#v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}
