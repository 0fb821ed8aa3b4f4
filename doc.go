// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the live survey server.

A presenter puts one question on screen with a PIN. The audience enters the
PIN, picks one option, and everyone can watch the tallies on /show.

# Starting the Server

A session secret is always required:

	SESSION_SECRET=change-me go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -session-secret change-me

A .env file in the working directory is read first; variables already set
in the environment win.

# Configuration

  - STORE_TYPE (-t): sqlite (default), postgres or file
  - DATABASE_URL (-d): SQLite path or PostgreSQL DSN (required for postgres)
  - DATA_DIR (-data-dir): directory of YAML files for the file store
  - PORT (-p): Server port (default: 3318)
  - PERMANENT_SESSION_LIFETIME (-session-lifetime): idle minutes (default: 10)
  - SESSION_SECRET (-session-secret): key for signing session cookies

# Architecture

  - handlers: pages for voting, results and administration
  - router: chi route table and health check
  - session: server-side sessions behind a signed cookie
  - store: SQL and file backends with busy retries and per-PIN locking
  - models: ballots, validation and the YAML document format
  - middleware: request logging and response helpers
  - auth: cookie signing and IP hashing
  - db: connections and schema
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
