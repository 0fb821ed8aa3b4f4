// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers for the live survey pages.

# Handler Types

Each handler is a struct holding the store, the session manager and the
config:

  - VotingHandler: PIN entry, voting and logout
  - ResultsHandler: the public results page
  - AdminHandler: editing a question (form or YAML) and resetting tallies

	voting := handlers.NewVotingHandler(st, sessions, cfg)

# Voting Flow

	GET/POST /enter_pin → EnterPIN (sets the session's active PIN)
	GET/POST /          → Vote (one vote per PIN per session)
	GET      /logout    → Logout

A visitor who already voted on the active PIN sees the results instead of
the form. A vote for an option the ballot doesn't have is dropped.

# Results

	GET/POST /show?pin=1234 → Show

Without a pin parameter the session's active PIN is used.

# Administration

	GET/POST /update      → Update (question, options, pin)
	GET/POST /update_yaml → UpdateYAML (yaml_data)
	GET/POST /reset       → Reset

A form update keeps the counts of options that survive the edit. A YAML
import replaces the ballot, votes included.

# Pages

Pages are html/template files embedded from templates/. Every page is
rendered inside layout.html, which shows the session's flash messages.
POST handlers answer with 303 See Other; validation failures re-render the
form with 400.
*/
package handlers
