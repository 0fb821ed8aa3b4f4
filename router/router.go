// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/danielhkuo/livesurvey/cliparse"
	"github.com/danielhkuo/livesurvey/handlers"
	"github.com/danielhkuo/livesurvey/middleware"
	"github.com/danielhkuo/livesurvey/session"
	"github.com/danielhkuo/livesurvey/store"
)

func NewRouter(st store.Store, sessions *session.Manager, cfg cliparse.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	// Initialize handlers
	votingHandler := handlers.NewVotingHandler(st, sessions, cfg)
	resultsHandler := handlers.NewResultsHandler(st, sessions, cfg)
	adminHandler := handlers.NewAdminHandler(st, sessions, cfg)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.JSONResponse(w, http.StatusOK, map[string]string{
			"status": "ok",
			"store":  cfg.StoreType,
		})
	})

	// Voting
	getPost(r, "/", middleware.WithLogging(votingHandler.Vote))
	getPost(r, "/enter_pin", middleware.WithLogging(votingHandler.EnterPIN))
	r.Get("/logout", middleware.WithLogging(votingHandler.Logout))

	// Results (public)
	getPost(r, "/show", middleware.WithLogging(resultsHandler.Show))

	// Administration
	getPost(r, "/update", middleware.WithLogging(adminHandler.Update))
	getPost(r, "/update_yaml", middleware.WithLogging(adminHandler.UpdateYAML))
	getPost(r, "/reset", middleware.WithLogging(adminHandler.Reset))

	return r
}

func getPost(r chi.Router, pattern string, h http.HandlerFunc) {
	r.Get(pattern, h)
	r.Post(pattern, h)
}
