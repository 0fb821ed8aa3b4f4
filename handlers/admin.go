// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/livesurvey/cliparse"
	"github.com/danielhkuo/livesurvey/middleware"
	"github.com/danielhkuo/livesurvey/models"
	"github.com/danielhkuo/livesurvey/session"
	"github.com/danielhkuo/livesurvey/store"
)

// AdminHandler edits ballots and resets tallies
type AdminHandler struct {
	store    store.Store
	sessions *session.Manager
	cfg      cliparse.Config
}

func NewAdminHandler(st store.Store, sessions *session.Manager, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{store: st, sessions: sessions, cfg: cfg}
}

// current returns the session's active ballot, or nil when there is none
func (h *AdminHandler) current(ctx context.Context, sess *session.Session) (*models.Ballot, error) {
	if sess.PIN == "" {
		return nil, nil
	}
	b, err := h.store.Load(ctx, sess.PIN)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

// Update handles GET and POST /update
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Load(r)

	if r.Method != http.MethodPost {
		b, err := h.current(r.Context(), sess)
		if err != nil {
			slog.Error("failed to load ballot", "pin", sess.PIN, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load ballot")
			return
		}
		form := updateForm{PIN: sess.PIN}
		if b != nil {
			form.Question = b.Question
			form.Options = strings.Join(b.Options, "\n")
		}
		render(w, h.sessions, sess, http.StatusOK, pageUpdate, pageData{Title: "Edit question", Form: form})
		return
	}

	if err := r.ParseForm(); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid form")
		return
	}
	question := strings.TrimSpace(r.PostForm.Get("question"))
	rawOptions := r.PostForm["options"]
	newPIN := strings.TrimSpace(r.PostForm.Get("pin"))

	form := updateForm{Question: question, Options: strings.Join(rawOptions, "\n"), PIN: newPIN}
	reject := func(msg string) {
		sess.AddFlash(session.FlashDanger, msg)
		render(w, h.sessions, sess, http.StatusBadRequest, pageUpdate, pageData{Title: "Edit question", Form: form})
	}

	if question == "" {
		reject("Question is required.")
		return
	}
	options, err := models.CleanOptions(rawOptions)
	if err != nil {
		reject(err.Error())
		return
	}

	target := sess.PIN
	if target == "" {
		target = newPIN
	}
	if newPIN == "" {
		newPIN = target
	}
	if err := models.ValidatePIN(newPIN); err != nil {
		reject(err.Error())
		return
	}

	ctx := r.Context()
	pin := target
	if newPIN != target {
		err := h.store.Rename(ctx, target, newPIN)
		var verr *models.ValidationError
		switch {
		case err == nil, errors.Is(err, store.ErrNotFound):
			// Nothing stored under the old PIN yet; create under the new one
			pin = newPIN
		case errors.Is(err, store.ErrPINTaken):
			reject(fmt.Sprintf("PIN %s is already in use.", newPIN))
			return
		case errors.As(err, &verr):
			reject(verr.Message)
			return
		default:
			slog.Error("failed to rename ballot", "from", target, "to", newPIN, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update question")
			return
		}
	}

	_, err = h.store.Update(ctx, pin, func(b *models.Ballot) error {
		b.Redefine(question, options)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		err = h.store.Save(ctx, models.NewBallot(pin, question, options))
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		reject(verr.Message)
		return
	}
	if err != nil {
		slog.Error("failed to update ballot", "pin", pin, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update question")
		return
	}

	slog.Info("ballot updated", "pin", pin, "options", len(options))
	sess.Enter(pin)
	sess.AddFlash(session.FlashSuccess, "Question updated successfully!")
	redirect(w, r, h.sessions, sess, "/")
}

// UpdateYAML handles GET and POST /update_yaml
func (h *AdminHandler) UpdateYAML(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Load(r)

	if r.Method != http.MethodPost {
		b, err := h.current(r.Context(), sess)
		if err != nil {
			slog.Error("failed to load ballot", "pin", sess.PIN, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load ballot")
			return
		}
		if b == nil {
			b = models.DefaultBallot(models.DefaultPIN)
		}
		doc, err := models.MarshalDocument(b)
		if err != nil {
			slog.Error("failed to encode ballot", "pin", b.PIN, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load ballot")
			return
		}
		render(w, h.sessions, sess, http.StatusOK, pageUpdateYAML, pageData{Title: "Edit YAML", YAML: string(doc)})
		return
	}

	text := r.FormValue("yaml_data")
	reject := func(msg string) {
		sess.AddFlash(session.FlashDanger, msg)
		render(w, h.sessions, sess, http.StatusBadRequest, pageUpdateYAML, pageData{Title: "Edit YAML", YAML: text})
	}

	imported, err := models.ParseDocument([]byte(text))
	if err != nil {
		reject(err.Error())
		return
	}

	ctx := r.Context()
	existed, err := h.store.Exists(ctx, imported.PIN)
	if err == nil && existed {
		_, err = h.store.Update(ctx, imported.PIN, func(b *models.Ballot) error {
			*b = *imported.Clone()
			return nil
		})
		if errors.Is(err, store.ErrNotFound) {
			existed, err = false, nil
		}
	}
	if err == nil && !existed {
		err = h.store.Save(ctx, imported)
	}
	created := !existed
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		reject(verr.Message)
		return
	}
	if err != nil {
		slog.Error("failed to import ballot", "pin", imported.PIN, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import question")
		return
	}

	slog.Info("ballot imported", "pin", imported.PIN, "created", created)
	sess.Enter(imported.PIN)
	if created {
		sess.AddFlash(session.FlashSuccess, "New question created successfully!")
	} else {
		sess.AddFlash(session.FlashSuccess, "Question updated successfully!")
	}
	redirect(w, r, h.sessions, sess, "/")
}

// Reset handles GET and POST /reset
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Load(r)

	report, err := h.store.ResetAll(r.Context())
	if err != nil {
		slog.Error("failed to reset votes", "reset", report.Reset, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset votes")
		return
	}

	slog.Info("votes reset", "reset", report.Reset, "failed", len(report.Failures))
	sess.AddFlash(session.FlashSuccess, "All votes have been reset!")
	for _, f := range report.Failures {
		sess.AddFlash(session.FlashDanger, fmt.Sprintf("Could not reset %s: %v", f.Key, f.Err))
	}
	redirect(w, r, h.sessions, sess, "/enter_pin")
}
