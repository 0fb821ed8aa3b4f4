// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/livesurvey/auth"
)

const CookieName = "livesurvey_session"

// Flash categories
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashDanger  = "danger"
)

type Flash struct {
	Category string
	Message  string
}

// Session is one visitor's state. Handlers get a private copy from
// Manager.Load and write it back with Manager.Save.
type Session struct {
	ID            string
	Authenticated bool
	// PIN is the ballot the visitor entered
	PIN     string
	Voted   map[string]bool
	Flashes []Flash

	lastSeen time.Time
	// loggedOut lets Save drop voted flags another request already stored
	loggedOut bool
}

// Enter marks the session as authenticated for pin
func (s *Session) Enter(pin string) {
	s.Authenticated = true
	s.PIN = pin
}

func (s *Session) HasVoted(pin string) bool {
	return s.Voted[pin]
}

func (s *Session) MarkVoted(pin string) {
	if s.Voted == nil {
		s.Voted = make(map[string]bool)
	}
	s.Voted[pin] = true
}

// Logout drops authentication, the active PIN and every voted flag
func (s *Session) Logout() {
	s.Authenticated = false
	s.PIN = ""
	clear(s.Voted)
	s.loggedOut = true
}

func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
}

// PopFlashes returns pending messages and clears them
func (s *Session) PopFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}

func (s *Session) clone() *Session {
	c := *s
	c.Voted = maps.Clone(s.Voted)
	c.Flashes = append([]Flash(nil), s.Flashes...)
	return &c
}

// Manager keeps sessions in memory, keyed by a UUID carried in a signed
// cookie. Sessions idle for longer than the lifetime are dropped.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	lifetime time.Duration
	secret   string
	now      func() time.Time
}

func NewManager(secret string, lifetime time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		lifetime: lifetime,
		secret:   secret,
		now:      time.Now,
	}
}

// Load returns the request's session, or a fresh one when the cookie is
// missing, forged or expired
func (m *Manager) Load(r *http.Request) *Session {
	now := m.now()

	if c, err := r.Cookie(CookieName); err == nil {
		id, err := auth.VerifySignedValue(c.Value, m.secret)
		if err != nil {
			slog.Warn("rejected session cookie", "error", err, "remote", r.RemoteAddr)
		} else {
			m.mu.Lock()
			s, ok := m.sessions[id]
			if ok && now.Sub(s.lastSeen) > m.lifetime {
				delete(m.sessions, id)
				ok = false
			}
			if ok {
				s.lastSeen = now
				cp := s.clone()
				m.mu.Unlock()
				return cp
			}
			m.mu.Unlock()
		}
	}

	return &Session{ID: uuid.NewString(), lastSeen: now}
}

// Save stores s and sets the session cookie. Call before writing the body.
func (m *Manager) Save(w http.ResponseWriter, s *Session) {
	now := m.now()

	m.mu.Lock()
	if _, exists := m.sessions[s.ID]; !exists {
		m.sweepLocked(now)
	}
	stored := s.clone()
	stored.lastSeen = now
	stored.loggedOut = false
	// Voted flags only go away on logout, so a stale copy can't erase one
	// recorded by a concurrent request
	if prev, exists := m.sessions[s.ID]; exists && !s.loggedOut {
		for pin, voted := range prev.Voted {
			if voted {
				stored.MarkVoted(pin)
			}
		}
	}
	m.sessions[s.ID] = stored
	s.loggedOut = false
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    auth.SignValue(s.ID, m.secret),
		Path:     "/",
		MaxAge:   int(m.lifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClaimVote sets the voted flag for pin on the stored session and on s.
// It reports false when the flag was already set, possibly by another
// request holding an older copy of the session.
func (m *Manager) ClaimVote(s *Session, pin string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[s.ID]
	if !ok {
		stored = s.clone()
		stored.lastSeen = m.now()
		m.sessions[s.ID] = stored
	}
	claimed := !stored.HasVoted(pin) && !s.HasVoted(pin)
	stored.MarkVoted(pin)
	s.MarkVoted(pin)
	return claimed
}

// ReleaseVote undoes a successful ClaimVote when the vote wasn't counted
func (m *Manager) ReleaseVote(s *Session, pin string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, ok := m.sessions[s.ID]; ok {
		delete(stored.Voted, pin)
	}
	delete(s.Voted, pin)
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) sweepLocked(now time.Time) {
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) > m.lifetime {
			delete(m.sessions, id)
		}
	}
}
