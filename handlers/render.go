// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/livesurvey/middleware"
	"github.com/danielhkuo/livesurvey/models"
	"github.com/danielhkuo/livesurvey/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"percent": func(p float64) string {
		return fmt.Sprintf("%.1f%%", p)
	},
}

// Page names
const (
	pageEnterPIN     = "enter_pin.html"
	pageVote         = "vote.html"
	pageAlreadyVoted = "already_voted.html"
	pageShow         = "show.html"
	pageUpdate       = "update.html"
	pageUpdateYAML   = "update_yaml.html"
)

// pages maps a page name to the layout parsed together with that page
var pages = mustParsePages(pageEnterPIN, pageVote, pageAlreadyVoted, pageShow, pageUpdate, pageUpdateYAML)

func mustParsePages(names ...string) map[string]*template.Template {
	m := make(map[string]*template.Template, len(names))
	for _, name := range names {
		m[name] = template.Must(template.New("layout").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/results.html",
			"templates/"+name,
		))
	}
	return m
}

// updateForm is what the edit form shows. Options are newline separated.
type updateForm struct {
	Question string
	Options  string
	PIN      string
}

type pageData struct {
	Title         string
	Authenticated bool
	Flashes       []session.Flash

	Ballot  *models.Ballot
	Results []models.OptionResult
	Total   int

	Form updateForm
	YAML string
}

func resultsPage(title string, b *models.Ballot) pageData {
	return pageData{
		Title:   title,
		Ballot:  b,
		Results: b.Results(),
		Total:   b.Total(),
	}
}

// render pops the session's flashes into the page, saves the session and
// writes the page with the given status
func render(w http.ResponseWriter, sessions *session.Manager, sess *session.Session, status int, name string, data pageData) {
	tmpl, ok := pages[name]
	if !ok {
		slog.Error("unknown page", "page", name)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "")
		return
	}

	data.Authenticated = sess.Authenticated
	data.Flashes = sess.PopFlashes()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render page", "page", name, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "")
		return
	}

	sessions.Save(w, sess)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write page", "page", name, "error", err)
	}
}

// redirect saves the session and sends the browser to path with a GET
func redirect(w http.ResponseWriter, r *http.Request, sessions *session.Manager, sess *session.Session, path string) {
	sessions.Save(w, sess)
	http.Redirect(w, r, path, http.StatusSeeOther)
}
