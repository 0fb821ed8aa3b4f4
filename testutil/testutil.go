// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/livesurvey/cliparse"
	"github.com/danielhkuo/livesurvey/db"
	"github.com/danielhkuo/livesurvey/models"
	"github.com/danielhkuo/livesurvey/session"
	"github.com/danielhkuo/livesurvey/store"
)

// GetTestConfig returns a config for tests
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		StoreType:       cliparse.StoreSQLite,
		SessionLifetime: 10 * time.Minute,
		SessionSecret:   "test-secret",
	}
}

// SetupSQLiteStore opens a fresh SQLite-backed store in a temp dir.
// The default ballot is not seeded.
func SetupSQLiteStore(t *testing.T) *store.SQLStore {
	t.Helper()

	conn, err := db.Open(db.SQLite, filepath.Join(t.TempDir(), "survey.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	s := store.NewSQLStore(conn, db.SQLite).WithRetrier(store.Retrier{
		Attempts: store.DefaultAttempts,
		MinDelay: 2 * time.Millisecond,
		MaxDelay: 20 * time.Millisecond,
	})
	t.Cleanup(func() { s.Close() })
	return s
}

// SetupFileStore returns a file store over an empty temp dir
func SetupFileStore(t *testing.T) *store.FileStore {
	t.Helper()

	s, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	return s
}

// SeedBallot saves a ballot with zero votes
func SeedBallot(t *testing.T, st store.Store, pin, question string, options ...string) *models.Ballot {
	t.Helper()

	b := models.NewBallot(pin, question, options)
	if err := st.Save(context.Background(), b); err != nil {
		t.Fatalf("Failed to seed ballot %s: %v", pin, err)
	}
	return b
}

// LoadBallot fails the test when the ballot can't be loaded
func LoadBallot(t *testing.T, st store.Store, pin string) *models.Ballot {
	t.Helper()

	b, err := st.Load(context.Background(), pin)
	if err != nil {
		t.Fatalf("Failed to load ballot %s: %v", pin, err)
	}
	return b
}

// NewSessionManager builds a session manager from the test config
func NewSessionManager(cfg cliparse.Config) *session.Manager {
	return session.NewManager(cfg.SessionSecret, cfg.SessionLifetime)
}

// FormRequest builds a request with a urlencoded body
func FormRequest(method, path string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// Browser replays cookies between requests like a real browser
type Browser struct {
	t       *testing.T
	cookies map[string]*http.Cookie
}

func NewBrowser(t *testing.T) *Browser {
	return &Browser{t: t, cookies: make(map[string]*http.Cookie)}
}

// Do sends req to h with the stored cookies and keeps any new ones
func (b *Browser) Do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()

	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return w
}

// Get is a shortcut for a GET without a body
func (b *Browser) Get(h http.Handler, path string) *httptest.ResponseRecorder {
	return b.Do(h, httptest.NewRequest("GET", path, nil))
}

// Post is a shortcut for a form POST
func (b *Browser) Post(h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	return b.Do(h, FormRequest("POST", path, values))
}

// AssertStatus checks the response status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d: %s", expected, w.Code, w.Body.String())
	}
}

// AssertRedirect checks for a 303 to location
func AssertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusSeeOther {
		t.Errorf("Expected redirect, got %d: %s", w.Code, w.Body.String())
		return
	}
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Expected redirect to %s, got %s", location, got)
	}
}

// AssertBodyContains checks that the page contains every fragment
func AssertBodyContains(t *testing.T, w *httptest.ResponseRecorder, fragments ...string) {
	t.Helper()
	body := w.Body.String()
	for _, f := range fragments {
		if !strings.Contains(body, f) {
			t.Errorf("Expected body to contain %q, got:\n%s", f, body)
		}
	}
}
