// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestManager(lifetime time.Duration) (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager("test-secret", lifetime)
	m.now = clock.now
	return m, clock
}

// roundTrip saves s and returns a request carrying the resulting cookie
func roundTrip(t *testing.T, m *Manager, s *Session) *http.Request {
	t.Helper()
	w := httptest.NewRecorder()
	m.Save(w, s)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("expected one %s cookie, got %v", CookieName, cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	return req
}

func TestManagerRoundTrip(t *testing.T) {
	m, _ := newTestManager(10 * time.Minute)

	s := m.Load(httptest.NewRequest("GET", "/", nil))
	if s.ID == "" || s.Authenticated {
		t.Fatalf("expected fresh unauthenticated session, got %+v", s)
	}
	s.Enter("1234")
	s.MarkVoted("1234")
	s.AddFlash(FlashSuccess, "Thank you for voting!")

	req := roundTrip(t, m, s)
	got := m.Load(req)

	if got.ID != s.ID {
		t.Errorf("expected same session ID, got %s vs %s", got.ID, s.ID)
	}
	if !got.Authenticated || got.PIN != "1234" || !got.HasVoted("1234") {
		t.Errorf("session state not restored: %+v", got)
	}
	flashes := got.PopFlashes()
	if len(flashes) != 1 || flashes[0].Message != "Thank you for voting!" {
		t.Errorf("unexpected flashes %v", flashes)
	}
	if len(got.PopFlashes()) != 0 {
		t.Error("PopFlashes should clear messages")
	}
}

func TestManagerLoadReturnsCopy(t *testing.T) {
	m, _ := newTestManager(10 * time.Minute)

	s := m.Load(httptest.NewRequest("GET", "/", nil))
	req := roundTrip(t, m, s)

	// Unsaved changes don't leak into the manager
	loaded := m.Load(req)
	loaded.MarkVoted("9")
	loaded.Enter("9")

	again := m.Load(req)
	if again.HasVoted("9") || again.Authenticated {
		t.Errorf("unsaved changes were visible: %+v", again)
	}
}

func TestManagerIdleTimeout(t *testing.T) {
	m, clock := newTestManager(10 * time.Minute)

	s := m.Load(httptest.NewRequest("GET", "/", nil))
	s.Enter("1234")
	req := roundTrip(t, m, s)

	// Activity inside the window keeps the session alive
	clock.t = clock.t.Add(9 * time.Minute)
	if got := m.Load(req); got.ID != s.ID {
		t.Fatal("session expired too early")
	}
	clock.t = clock.t.Add(9 * time.Minute)
	if got := m.Load(req); got.ID != s.ID {
		t.Fatal("Load should refresh the idle timer")
	}

	clock.t = clock.t.Add(11 * time.Minute)
	got := m.Load(req)
	if got.ID == s.ID || got.Authenticated {
		t.Errorf("expected a fresh session after idle timeout, got %+v", got)
	}
}

func TestManagerRejectsForgedCookie(t *testing.T) {
	m, _ := newTestManager(10 * time.Minute)

	s := m.Load(httptest.NewRequest("GET", "/", nil))
	s.Enter("1234")
	roundTrip(t, m, s)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: s.ID + ".forged"})

	got := m.Load(req)
	if got.ID == s.ID || got.Authenticated {
		t.Errorf("forged cookie was accepted: %+v", got)
	}
}

func TestManagerSweepsExpiredSessions(t *testing.T) {
	m, clock := newTestManager(time.Minute)

	for i := 0; i < 3; i++ {
		s := m.Load(httptest.NewRequest("GET", "/", nil))
		m.Save(httptest.NewRecorder(), s)
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 sessions, got %d", m.Len())
	}

	clock.t = clock.t.Add(2 * time.Minute)
	s := m.Load(httptest.NewRequest("GET", "/", nil))
	m.Save(httptest.NewRecorder(), s)

	if m.Len() != 1 {
		t.Errorf("expected expired sessions to be swept, %d left", m.Len())
	}
}

func TestSessionLogoutClearsVotedFlags(t *testing.T) {
	s := &Session{}
	s.Enter("1111")
	s.MarkVoted("1111")
	s.MarkVoted("2222")

	s.Logout()

	if s.Authenticated || s.PIN != "" {
		t.Errorf("logout kept authentication: %+v", s)
	}
	if s.HasVoted("1111") || s.HasVoted("2222") {
		t.Error("logout should clear every per-PIN voted flag")
	}
}

func TestManagerClaimVote(t *testing.T) {
	m, _ := newTestManager(10 * time.Minute)

	s := m.Load(httptest.NewRequest("GET", "/", nil))
	s.Enter("1234")
	req := roundTrip(t, m, s)

	// Two requests holding copies loaded before either voted
	first, second := m.Load(req), m.Load(req)

	if !m.ClaimVote(first, "1234") {
		t.Fatal("first claim should succeed")
	}
	if m.ClaimVote(second, "1234") {
		t.Error("second claim from a stale copy should fail")
	}
	if !second.HasVoted("1234") {
		t.Error("failed claim should still mark the copy as voted")
	}

	m.ReleaseVote(first, "1234")
	if first.HasVoted("1234") || m.Load(req).HasVoted("1234") {
		t.Error("released vote should clear the flag")
	}
	if !m.ClaimVote(m.Load(req), "1234") {
		t.Error("claim after release should succeed")
	}
}

func TestManagerSaveKeepsVotedFlags(t *testing.T) {
	m, _ := newTestManager(10 * time.Minute)

	s := m.Load(httptest.NewRequest("GET", "/", nil))
	s.Enter("1234")
	req := roundTrip(t, m, s)

	stale := m.Load(req)
	voter := m.Load(req)
	m.ClaimVote(voter, "1234")
	m.Save(httptest.NewRecorder(), voter)

	// A page view that loaded before the vote saves afterwards
	stale.AddFlash(FlashInfo, "hello")
	m.Save(httptest.NewRecorder(), stale)
	if !m.Load(req).HasVoted("1234") {
		t.Error("saving a stale copy erased the voted flag")
	}

	out := m.Load(req)
	out.Logout()
	m.Save(httptest.NewRecorder(), out)
	if m.Load(req).HasVoted("1234") {
		t.Error("logout should clear the stored voted flag")
	}
}
