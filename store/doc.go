// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists ballots by PIN.

# Backends

Two implementations share the Store interface:

  - SQLStore: one row per PIN in the questions table (SQLite or
    PostgreSQL). Loads and saves are retried while the database is busy.
  - FileStore: one YAML file per PIN. Saves rewrite the whole file.

Pick one at startup:

	st := store.NewSQLStore(conn, db.SQLite)
	st, err := store.NewFileStore("./questions_bank")

# Unknown PINs

SQLStore.Load and SQLStore.Open return ErrNotFound for a PIN with no row.
FileStore.Load returns the default ballot for a PIN with no file, and
FileStore.Open also writes that file.

# Retrying

SQLStore wraps every statement in Retrier.Do:

	err := s.retry.Do(ctx, "save ballot", func() error { ... })

IsBusy decides what counts as contention: SQLITE_BUSY and SQLITE_LOCKED,
and PostgreSQL 55P03, 40001 and 40P01. Busy errors are retried up to 10
times with a random 100-900ms pause; other errors return at once. When
every attempt fails the error wraps ErrExhausted.

# Vote Counting

Update runs load, modify, save under a per-PIN mutex:

	b, err := st.Update(ctx, pin, func(b *models.Ballot) error {
		return b.Vote(option)
	})

Two votes for the same PIN in one process can't overwrite each other.
Separate processes sharing a database still can.

# Reset

ResetAll zeroes every ballot in one pass. A corrupt row or file is
recorded in ResetReport.Failures and the pass moves on.
*/
package store
