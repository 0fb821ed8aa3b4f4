// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open connects to SQLite (modernc.org/sqlite, no cgo) or PostgreSQL
(lib/pq) and pings the server:

	conn, err := db.Open(db.SQLite, "./questions_bank/survey.db")

SQLite files are opened in WAL mode with a zero busy timeout, so a locked
database is reported immediately and retried by the store.

# Schema Creation

CreateSchema initializes the questions table:

	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS.

# Tables

One table, one row per PIN:

  - questions: id, question, options, votes, pin (unique)

options is a JSON array of labels and votes a JSON array of counts in the
same order.

# Placeholders

Queries are written with ? placeholders. Rebind converts them to $1, $2,
... for PostgreSQL:

	conn.Exec(db.Rebind(dialect, "UPDATE questions SET votes = ? WHERE pin = ?"), votes, pin)
*/
package db
