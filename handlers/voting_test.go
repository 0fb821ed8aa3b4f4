// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/danielhkuo/livesurvey/store"
	"github.com/danielhkuo/livesurvey/testutil"
)

type testServer struct {
	store   store.Store
	voting  *VotingHandler
	results *ResultsHandler
	admin   *AdminHandler
}

func newTestServer(t *testing.T, st store.Store) *testServer {
	t.Helper()
	cfg := testutil.GetTestConfig()
	sessions := testutil.NewSessionManager(cfg)
	return &testServer{
		store:   st,
		voting:  NewVotingHandler(st, sessions, cfg),
		results: NewResultsHandler(st, sessions, cfg),
		admin:   NewAdminHandler(st, sessions, cfg),
	}
}

// enterPIN logs the browser into pin and checks the redirect
func (s *testServer) enterPIN(t *testing.T, b *testutil.Browser, pin string) {
	t.Helper()
	w := b.Post(http.HandlerFunc(s.voting.EnterPIN), "/enter_pin", url.Values{"pin": {pin}})
	testutil.AssertRedirect(t, w, "/")
}

func (s *testServer) vote(b *testutil.Browser, option string) *httptest.ResponseRecorder {
	return b.Post(http.HandlerFunc(s.voting.Vote), "/", url.Values{"option": {option}})
}

func TestEnterPIN(t *testing.T) {
	t.Run("form", func(t *testing.T) {
		srv := newTestServer(t, testutil.SetupSQLiteStore(t))
		w := testutil.NewBrowser(t).Get(http.HandlerFunc(srv.voting.EnterPIN), "/enter_pin")

		testutil.AssertStatus(t, w, http.StatusOK)
		testutil.AssertBodyContains(t, w, `name="pin"`)
	})

	t.Run("known pin", func(t *testing.T) {
		st := testutil.SetupSQLiteStore(t)
		testutil.SeedBallot(t, st, "1234", "Q", "A", "B")
		srv := newTestServer(t, st)

		b := testutil.NewBrowser(t)
		srv.enterPIN(t, b, "1234")

		w := b.Get(http.HandlerFunc(srv.voting.Vote), "/")
		testutil.AssertStatus(t, w, http.StatusOK)
		testutil.AssertBodyContains(t, w, "<h1>Q</h1>", `value="A"`, `value="B"`)
	})

	invalid := []struct {
		name string
		pin  string
	}{
		{"unknown pin", "9999"},
		{"empty pin", ""},
		{"malformed pin", "../etc"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			st := testutil.SetupSQLiteStore(t)
			testutil.SeedBallot(t, st, "1234", "Q", "A", "B")
			srv := newTestServer(t, st)

			b := testutil.NewBrowser(t)
			w := b.Post(http.HandlerFunc(srv.voting.EnterPIN), "/enter_pin", url.Values{"pin": {tc.pin}})

			testutil.AssertStatus(t, w, http.StatusOK)
			testutil.AssertBodyContains(t, w, "Incorrect PIN. Please try again.")

			// Still not logged in
			w = b.Get(http.HandlerFunc(srv.voting.Vote), "/")
			testutil.AssertRedirect(t, w, "/enter_pin")
		})
	}

	t.Run("file store accepts any valid pin", func(t *testing.T) {
		st := testutil.SetupFileStore(t)
		srv := newTestServer(t, st)

		b := testutil.NewBrowser(t)
		srv.enterPIN(t, b, "4242")

		got := testutil.LoadBallot(t, st, "4242")
		if got.Question == "" || len(got.Options) != 3 {
			t.Errorf("expected the default question under 4242, got %+v", got)
		}
	})
}

func TestVoteRequiresPIN(t *testing.T) {
	srv := newTestServer(t, testutil.SetupSQLiteStore(t))
	b := testutil.NewBrowser(t)

	testutil.AssertRedirect(t, b.Get(http.HandlerFunc(srv.voting.Vote), "/"), "/enter_pin")
	testutil.AssertRedirect(t, srv.vote(b, "A"), "/enter_pin")
}

func TestVoteOncePerPIN(t *testing.T) {
	st := testutil.SetupSQLiteStore(t)
	testutil.SeedBallot(t, st, "1234", "Q", "A", "B")
	srv := newTestServer(t, st)

	b := testutil.NewBrowser(t)
	srv.enterPIN(t, b, "1234")

	testutil.AssertRedirect(t, srv.vote(b, "A"), "/")

	got := testutil.LoadBallot(t, st, "1234")
	if got.Votes["A"] != 1 || got.Votes["B"] != 0 {
		t.Fatalf("expected {A:1 B:0}, got %v", got.Votes)
	}

	// The results view replaces the form and shows the flash once
	w := b.Get(http.HandlerFunc(srv.voting.Vote), "/")
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertBodyContains(t, w, "Thank you for voting!", "You have already voted", "Total votes: 1")

	// A second attempt is read-only
	w = srv.vote(b, "B")
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertBodyContains(t, w, "You have already voted")

	got = testutil.LoadBallot(t, st, "1234")
	if got.Votes["A"] != 1 || got.Votes["B"] != 0 {
		t.Errorf("second vote changed tallies: %v", got.Votes)
	}
}

// TestFileStoreFlow runs a fresh PIN through the YAML-backed store from
// entry to reset
func TestFileStoreFlow(t *testing.T) {
	st := testutil.SetupFileStore(t)
	srv := newTestServer(t, st)

	b := testutil.NewBrowser(t)
	srv.enterPIN(t, b, "4321")

	created := testutil.LoadBallot(t, st, "4321")
	if ok, err := st.Exists(context.Background(), "4321"); err != nil || !ok {
		t.Fatalf("entering a new PIN should write its file, got %v, %v", ok, err)
	}

	option := created.Options[0]
	testutil.AssertRedirect(t, srv.vote(b, option), "/")

	w := testutil.NewBrowser(t).Get(http.HandlerFunc(srv.results.Show), "/show?pin=4321")
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertBodyContains(t, w, option, "Total votes: 1")

	testutil.AssertRedirect(t, b.Post(http.HandlerFunc(srv.admin.Reset), "/reset", nil), "/enter_pin")

	got := testutil.LoadBallot(t, st, "4321")
	if got.Total() != 0 || len(got.Options) != len(created.Options) {
		t.Errorf("reset left %+v", got)
	}
	testutil.AssertBodyContains(t, b.Get(http.HandlerFunc(srv.voting.EnterPIN), "/enter_pin"), "All votes have been reset!")
}

func TestVoteUnknownOptionIgnored(t *testing.T) {
	st := testutil.SetupSQLiteStore(t)
	testutil.SeedBallot(t, st, "1234", "Q", "A", "B")
	srv := newTestServer(t, st)

	b := testutil.NewBrowser(t)
	srv.enterPIN(t, b, "1234")

	testutil.AssertRedirect(t, srv.vote(b, "Z"), "/")

	got := testutil.LoadBallot(t, st, "1234")
	if got.Total() != 0 {
		t.Errorf("unknown option changed tallies: %v", got.Votes)
	}

	// The visitor can still cast a real vote
	w := b.Get(http.HandlerFunc(srv.voting.Vote), "/")
	testutil.AssertBodyContains(t, w, `name="option"`)
	testutil.AssertRedirect(t, srv.vote(b, "B"), "/")

	got = testutil.LoadBallot(t, st, "1234")
	if got.Votes["B"] != 1 {
		t.Errorf("expected B to have 1 vote, got %v", got.Votes)
	}
}

func TestVoteBallotRenamedAway(t *testing.T) {
	st := testutil.SetupSQLiteStore(t)
	testutil.SeedBallot(t, st, "1234", "Q", "A", "B")
	srv := newTestServer(t, st)

	b := testutil.NewBrowser(t)
	srv.enterPIN(t, b, "1234")

	if err := st.Rename(context.Background(), "1234", "5678"); err != nil {
		t.Fatalf("Failed to rename: %v", err)
	}

	testutil.AssertRedirect(t, b.Get(http.HandlerFunc(srv.voting.Vote), "/"), "/enter_pin")

	w := b.Get(http.HandlerFunc(srv.voting.EnterPIN), "/enter_pin")
	testutil.AssertBodyContains(t, w, "no longer available")
}

func TestLogoutClearsVotedFlags(t *testing.T) {
	st := testutil.SetupSQLiteStore(t)
	testutil.SeedBallot(t, st, "1111", "First", "A", "B")
	testutil.SeedBallot(t, st, "2222", "Second", "C", "D")
	srv := newTestServer(t, st)

	b := testutil.NewBrowser(t)
	srv.enterPIN(t, b, "1111")
	srv.vote(b, "A")
	srv.enterPIN(t, b, "2222")
	srv.vote(b, "C")

	w := b.Get(http.HandlerFunc(srv.voting.Logout), "/logout")
	testutil.AssertRedirect(t, w, "/enter_pin")

	w = b.Get(http.HandlerFunc(srv.voting.EnterPIN), "/enter_pin")
	testutil.AssertBodyContains(t, w, "You have been logged out.")
	testutil.AssertRedirect(t, b.Get(http.HandlerFunc(srv.voting.Vote), "/"), "/enter_pin")

	// Both PINs can be voted on again
	for _, tc := range []struct{ pin, option string }{{"1111", "B"}, {"2222", "D"}} {
		srv.enterPIN(t, b, tc.pin)
		w := b.Get(http.HandlerFunc(srv.voting.Vote), "/")
		testutil.AssertBodyContains(t, w, `name="option"`)
		srv.vote(b, tc.option)

		got := testutil.LoadBallot(t, st, tc.pin)
		if got.Votes[tc.option] != 1 {
			t.Errorf("vote on %s after logout not counted: %v", tc.pin, got.Votes)
		}
	}
}
