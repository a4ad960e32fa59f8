package authkit

import (
	"testing"
	"time"
)

func waitForExpiry(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for idle expiry")
		return ""
	}
}

func TestMonitorFiresAfterIdleTimeout(t *testing.T) {
	expired := make(chan string, 1)
	m := newSessionMonitor(20*time.Millisecond, func(sessionID string) {
		expired <- sessionID
	})

	m.StartOrReset("s1")

	if got := waitForExpiry(t, expired); got != "s1" {
		t.Fatalf("expected s1 to expire, got %q", got)
	}
	if m.Active() != "" {
		t.Fatal("expected no active session after expiry")
	}
}

func TestMonitorTouchReArmsTimer(t *testing.T) {
	expired := make(chan string, 1)
	m := newSessionMonitor(80*time.Millisecond, func(sessionID string) {
		expired <- sessionID
	})

	m.StartOrReset("s1")

	// Keep touching past the original deadline; the session must survive.
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		m.Touch()
	}
	select {
	case id := <-expired:
		t.Fatalf("session %q expired despite activity", id)
	default:
	}

	if got := waitForExpiry(t, expired); got != "s1" {
		t.Fatalf("expected s1 to expire once idle, got %q", got)
	}
}

func TestMonitorCancelPreventsExpiry(t *testing.T) {
	expired := make(chan string, 1)
	m := newSessionMonitor(30*time.Millisecond, func(sessionID string) {
		expired <- sessionID
	})

	m.StartOrReset("s1")
	m.Cancel("s1")

	select {
	case id := <-expired:
		t.Fatalf("cancelled session %q still expired", id)
	case <-time.After(100 * time.Millisecond):
	}
	if m.Active() != "" {
		t.Fatal("expected no active session after cancel")
	}
}

func TestMonitorCancelIgnoresStaleSessionID(t *testing.T) {
	expired := make(chan string, 1)
	m := newSessionMonitor(30*time.Millisecond, func(sessionID string) {
		expired <- sessionID
	})

	m.StartOrReset("s2")
	m.Cancel("s1")

	if m.Active() != "s2" {
		t.Fatalf("cancel for another session must not disarm, active = %q", m.Active())
	}
	if got := waitForExpiry(t, expired); got != "s2" {
		t.Fatalf("expected s2 to expire, got %q", got)
	}
}

func TestMonitorNewSessionReplacesOld(t *testing.T) {
	expired := make(chan string, 2)
	m := newSessionMonitor(40*time.Millisecond, func(sessionID string) {
		expired <- sessionID
	})

	m.StartOrReset("s1")
	m.StartOrReset("s2")

	if got := waitForExpiry(t, expired); got != "s2" {
		t.Fatalf("expected only the replacement session to expire, got %q", got)
	}
	select {
	case id := <-expired:
		t.Fatalf("replaced session %q must not expire, but did", id)
	case <-time.After(100 * time.Millisecond):
	}
}
