package conversation

import (
	"testing"
	"time"
)

func TestSessions_Lifecycle(t *testing.T) {
	m := NewSessions()

	if m.Get("1") != nil {
		t.Fatalf("empty manager returned a session")
	}
	if m.InProgress("1") {
		t.Fatalf("empty manager reported in-progress")
	}

	s := m.Begin("1", StateAwaitingName)
	if s.State != StateAwaitingName {
		t.Fatalf("unexpected initial state: %s", s.State)
	}
	if !m.InProgress("1") {
		t.Fatalf("begun session not in progress")
	}
	if m.Get("1") != s {
		t.Fatalf("Get returned a different session")
	}

	// Begin replaces an existing session wholesale
	s2 := m.Begin("1", StateAwaitingPassword)
	if m.Get("1") != s2 || s2.Name != "" {
		t.Fatalf("Begin did not replace the session")
	}

	m.Clear("1")
	if m.Get("1") != nil {
		t.Fatalf("Clear did not remove the session")
	}
}

func TestSessions_ExpireIdle(t *testing.T) {
	m := NewSessions()
	m.Begin("stale", StateAwaitingName)
	m.Begin("fresh", StateAwaitingPhone)

	m.Get("stale").LastActive = time.Now().Add(-2 * time.Hour)

	removed := m.ExpireIdle(time.Hour)
	if removed != 1 {
		t.Fatalf("want 1 expired, got %d", removed)
	}
	if m.Get("stale") != nil {
		t.Fatalf("stale session survived")
	}
	if m.Get("fresh") == nil {
		t.Fatalf("fresh session expired")
	}

	// Touch refreshes the idle timer
	m.Get("fresh").LastActive = time.Now().Add(-2 * time.Hour)
	m.Touch("fresh")
	if removed := m.ExpireIdle(time.Hour); removed != 0 {
		t.Fatalf("touched session expired")
	}
}

func TestEmoji(t *testing.T) {
	if Emoji("welcome", "") != "😎" {
		t.Fatalf("welcome emoji changed")
	}
	if Emoji("general", "what's the date") != "📅" {
		t.Fatalf("date content must pick the date emoji")
	}
	if Emoji("general", "who is Tanishk Sharma") != "🎤" {
		t.Fatalf("founder content must pick the founder emoji")
	}
	if Emoji("general", "hello") != "😊" {
		t.Fatalf("general fallback changed")
	}
	if Emoji("unknown-category", "") != "😊" {
		t.Fatalf("unknown category must fall back")
	}
}
