// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/livesurvey/db"
	"github.com/danielhkuo/livesurvey/models"
)

// dbtx is the part of *sql.DB the store uses
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore keeps every ballot as one row of the questions table.
// Reads and writes are retried while the database reports lock contention.
type SQLStore struct {
	conn    dbtx
	closer  func() error
	dialect db.Dialect
	retry   Retrier
	locks   pinLocks
}

// NewSQLStore wraps an open connection whose schema already exists
func NewSQLStore(conn *sql.DB, dialect db.Dialect) *SQLStore {
	return &SQLStore{
		conn:    conn,
		closer:  conn.Close,
		dialect: dialect,
		retry:   DefaultRetrier(),
	}
}

// WithRetrier replaces the retry policy
func (s *SQLStore) WithRetrier(r Retrier) *SQLStore {
	s.retry = r
	return s
}

func (s *SQLStore) q(query string) string {
	return db.Rebind(s.dialect, query)
}

// Seed inserts the default ballot under PIN "0" when the table is empty
func (s *SQLStore) Seed(ctx context.Context) error {
	var count int
	err := s.retry.Do(ctx, "count ballots", func() error {
		return s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions").Scan(&count)
	})
	if err != nil {
		return fmt.Errorf("failed to count ballots: %w", err)
	}
	if count > 0 {
		return nil
	}

	if err := s.Save(ctx, models.DefaultBallot(models.DefaultPIN)); err != nil {
		return fmt.Errorf("failed to seed default ballot: %w", err)
	}
	slog.Info("database seeded with default question", "pin", models.DefaultPIN)
	return nil
}

func (s *SQLStore) Load(ctx context.Context, pin string) (*models.Ballot, error) {
	var question, options, votes string
	err := s.retry.Do(ctx, "load ballot", func() error {
		return s.conn.QueryRowContext(ctx, s.q(`
			SELECT question, options, votes FROM questions WHERE pin = ?
		`), pin).Scan(&question, &options, &votes)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ballot %s: %w", pin, err)
	}

	return decodeRow(pin, question, options, votes)
}

func (s *SQLStore) Open(ctx context.Context, pin string) (*models.Ballot, error) {
	return s.Load(ctx, pin)
}

func (s *SQLStore) Exists(ctx context.Context, pin string) (bool, error) {
	var found bool
	err := s.retry.Do(ctx, "check pin", func() error {
		return s.conn.QueryRowContext(ctx, s.q(`
			SELECT EXISTS(SELECT 1 FROM questions WHERE pin = ?)
		`), pin).Scan(&found)
	})
	if err != nil {
		return false, fmt.Errorf("failed to check pin %s: %w", pin, err)
	}
	return found, nil
}

func (s *SQLStore) Save(ctx context.Context, b *models.Ballot) error {
	unlock := s.locks.lock(b.PIN)
	defer unlock()
	return s.save(ctx, b)
}

// save upserts b. Callers hold the PIN's lock.
func (s *SQLStore) save(ctx context.Context, b *models.Ballot) error {
	if err := b.Validate(); err != nil {
		return err
	}
	options, votes, err := encodeRow(b)
	if err != nil {
		return err
	}

	err = s.retry.Do(ctx, "save ballot", func() error {
		_, err := s.conn.ExecContext(ctx, s.q(`
			INSERT INTO questions (question, options, votes, pin)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (pin) DO UPDATE
			SET question = excluded.question, options = excluded.options, votes = excluded.votes
		`), b.Question, options, votes, b.PIN)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save ballot %s: %w", b.PIN, err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, pin string, fn func(*models.Ballot) error) (*models.Ballot, error) {
	unlock := s.locks.lock(pin)
	defer unlock()

	b, err := s.Load(ctx, pin)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *SQLStore) Rename(ctx context.Context, oldPIN, newPIN string) error {
	if oldPIN == newPIN {
		return nil
	}
	if err := models.ValidatePIN(newPIN); err != nil {
		return err
	}

	unlock := s.locks.lockPair(oldPIN, newPIN)
	defer unlock()

	taken, err := s.Exists(ctx, newPIN)
	if err != nil {
		return err
	}
	if taken {
		return ErrPINTaken
	}

	var affected int64
	err = s.retry.Do(ctx, "rename ballot", func() error {
		res, err := s.conn.ExecContext(ctx, s.q(`
			UPDATE questions SET pin = ? WHERE pin = ?
		`), newPIN, oldPIN)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to rename ballot %s: %w", oldPIN, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ResetAll(ctx context.Context) (ResetReport, error) {
	var report ResetReport

	// Read every PIN up front so a retry never resumes a half-read cursor
	var pins []string
	err := s.retry.Do(ctx, "list ballots", func() error {
		pins = pins[:0]
		rows, err := s.conn.QueryContext(ctx, "SELECT pin FROM questions ORDER BY id")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var pin string
			if err := rows.Scan(&pin); err != nil {
				return err
			}
			pins = append(pins, pin)
		}
		return rows.Err()
	})
	if err != nil {
		return report, fmt.Errorf("failed to list ballots: %w", err)
	}

	for _, pin := range pins {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		reset, err := s.resetOne(ctx, pin)
		if err != nil {
			slog.Error("failed to reset ballot", "pin", pin, "error", err)
			report.Failures = append(report.Failures, ResetFailure{Key: pin, Err: err})
			continue
		}
		if reset {
			report.Reset++
		}
	}
	return report, nil
}

// resetOne zeroes the tallies of pin. The options are read under the PIN's
// lock so the written array always matches them. A ballot renamed or gone
// since the listing is skipped and reports false.
func (s *SQLStore) resetOne(ctx context.Context, pin string) (bool, error) {
	unlock := s.locks.lock(pin)
	defer unlock()

	var raw string
	err := s.retry.Do(ctx, "load options", func() error {
		return s.conn.QueryRowContext(ctx, s.q(`
			SELECT options FROM questions WHERE pin = ?
		`), pin).Scan(&raw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var options []string
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return false, fmt.Errorf("corrupt options column: %w", err)
	}
	zeros, err := json.Marshal(make([]int, len(options)))
	if err != nil {
		return false, err
	}

	var affected int64
	err = s.retry.Do(ctx, "reset ballot", func() error {
		res, err := s.conn.ExecContext(ctx, s.q(`
			UPDATE questions SET votes = ? WHERE pin = ?
		`), string(zeros), pin)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *SQLStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// encodeRow turns options and counts into aligned JSON arrays
func encodeRow(b *models.Ballot) (options, votes string, err error) {
	counts := make([]int, len(b.Options))
	for i, opt := range b.Options {
		counts[i] = b.Votes[opt]
	}
	o, err := json.Marshal(b.Options)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode options: %w", err)
	}
	v, err := json.Marshal(counts)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode votes: %w", err)
	}
	return string(o), string(v), nil
}

func decodeRow(pin, question, options, votes string) (*models.Ballot, error) {
	var labels []string
	if err := json.Unmarshal([]byte(options), &labels); err != nil {
		return nil, fmt.Errorf("ballot %s has corrupt options: %w", pin, err)
	}
	var counts []int
	if err := json.Unmarshal([]byte(votes), &counts); err != nil {
		return nil, fmt.Errorf("ballot %s has corrupt votes: %w", pin, err)
	}
	if len(counts) != len(labels) {
		return nil, fmt.Errorf("ballot %s has %d options but %d counts", pin, len(labels), len(counts))
	}

	b := models.NewBallot(pin, question, labels)
	for i, opt := range labels {
		b.Votes[opt] = counts[i]
	}
	return b, nil
}
