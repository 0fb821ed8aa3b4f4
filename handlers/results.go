// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/livesurvey/cliparse"
	"github.com/danielhkuo/livesurvey/middleware"
	"github.com/danielhkuo/livesurvey/models"
	"github.com/danielhkuo/livesurvey/session"
	"github.com/danielhkuo/livesurvey/store"
)

type ResultsHandler struct {
	store    store.Store
	sessions *session.Manager
	cfg      cliparse.Config
}

func NewResultsHandler(st store.Store, sessions *session.Manager, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{store: st, sessions: sessions, cfg: cfg}
}

// Show handles GET and POST /show. Anyone with the PIN may view results.
func (h *ResultsHandler) Show(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Load(r)

	pin := strings.TrimSpace(r.URL.Query().Get("pin"))
	if pin == "" {
		pin = sess.PIN
	}
	if pin == "" {
		redirect(w, r, h.sessions, sess, "/enter_pin")
		return
	}

	b, err := h.store.Load(r.Context(), pin)
	var verr *models.ValidationError
	if errors.Is(err, store.ErrNotFound) || errors.As(err, &verr) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		slog.Error("failed to load results", "pin", pin, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load results")
		return
	}

	render(w, h.sessions, sess, http.StatusOK, pageShow, resultsPage("Results", b))
}
