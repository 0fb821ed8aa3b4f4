// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/livesurvey/auth"
	"github.com/danielhkuo/livesurvey/cliparse"
	"github.com/danielhkuo/livesurvey/middleware"
	"github.com/danielhkuo/livesurvey/models"
	"github.com/danielhkuo/livesurvey/session"
	"github.com/danielhkuo/livesurvey/store"
)

const msgIncorrectPIN = "Incorrect PIN. Please try again."

type VotingHandler struct {
	store    store.Store
	sessions *session.Manager
	cfg      cliparse.Config
}

func NewVotingHandler(st store.Store, sessions *session.Manager, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{store: st, sessions: sessions, cfg: cfg}
}

// EnterPIN handles GET and POST /enter_pin
func (h *VotingHandler) EnterPIN(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Load(r)

	if r.Method != http.MethodPost {
		render(w, h.sessions, sess, http.StatusOK, pageEnterPIN, pageData{Title: "Enter PIN"})
		return
	}

	pin := strings.TrimSpace(r.FormValue("pin"))
	if err := models.ValidatePIN(pin); err != nil {
		sess.AddFlash(session.FlashDanger, msgIncorrectPIN)
		render(w, h.sessions, sess, http.StatusOK, pageEnterPIN, pageData{Title: "Enter PIN"})
		return
	}

	b, err := h.store.Open(r.Context(), pin)
	if errors.Is(err, store.ErrNotFound) {
		slog.Info("unknown pin entered", "pin", pin)
		sess.AddFlash(session.FlashDanger, msgIncorrectPIN)
		render(w, h.sessions, sess, http.StatusOK, pageEnterPIN, pageData{Title: "Enter PIN"})
		return
	}
	if err != nil {
		slog.Error("failed to open ballot", "pin", pin, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to open ballot")
		return
	}

	sess.Enter(b.PIN)
	slog.Info("pin entered", "pin", b.PIN)
	redirect(w, r, h.sessions, sess, "/")
}

// Vote handles GET and POST /
func (h *VotingHandler) Vote(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Load(r)
	if !sess.Authenticated || sess.PIN == "" {
		redirect(w, r, h.sessions, sess, "/enter_pin")
		return
	}
	pin := sess.PIN

	b, err := h.store.Load(r.Context(), pin)
	if errors.Is(err, store.ErrNotFound) {
		h.ballotGone(w, r, sess)
		return
	}
	if err != nil {
		slog.Error("failed to load ballot", "pin", pin, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load ballot")
		return
	}

	if sess.HasVoted(pin) {
		render(w, h.sessions, sess, http.StatusOK, pageAlreadyVoted, resultsPage("Results", b))
		return
	}

	if r.Method != http.MethodPost {
		render(w, h.sessions, sess, http.StatusOK, pageVote, pageData{Title: "Vote", Ballot: b})
		return
	}

	// Claim the flag first so two requests from one session can't both count
	if !h.sessions.ClaimVote(sess, pin) {
		render(w, h.sessions, sess, http.StatusOK, pageAlreadyVoted, resultsPage("Results", b))
		return
	}

	option := r.FormValue("option")
	_, err = h.store.Update(r.Context(), pin, func(b *models.Ballot) error {
		return b.Vote(option)
	})
	if err != nil {
		h.sessions.ReleaseVote(sess, pin)
	}
	switch {
	case err == nil:
		sess.AddFlash(session.FlashSuccess, "Thank you for voting!")
		slog.Info("vote recorded",
			"pin", pin,
			"voter", auth.HashIP(middleware.GetClientIP(r), h.cfg.SessionSecret),
		)
	case errors.Is(err, models.ErrUnknownOption):
		// Stale or tampered form; nothing is counted
		slog.Warn("ignored vote for unknown option", "pin", pin, "option", option)
	case errors.Is(err, store.ErrNotFound):
		h.ballotGone(w, r, sess)
		return
	default:
		slog.Error("failed to record vote", "pin", pin, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	redirect(w, r, h.sessions, sess, "/")
}

// ballotGone sends the visitor back to the PIN form when their ballot was
// renamed or removed by someone else
func (h *VotingHandler) ballotGone(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	slog.Info("session ballot no longer exists", "pin", sess.PIN)
	sess.Logout()
	sess.AddFlash(session.FlashInfo, "That question is no longer available. Please enter a PIN.")
	redirect(w, r, h.sessions, sess, "/enter_pin")
}

// Logout handles GET /logout
func (h *VotingHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Load(r)
	sess.Logout()
	sess.AddFlash(session.FlashInfo, "You have been logged out.")
	redirect(w, r, h.sessions, sess, "/enter_pin")
}
