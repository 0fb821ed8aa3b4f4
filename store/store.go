// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"

	"github.com/danielhkuo/livesurvey/models"
)

var (
	ErrNotFound  = errors.New("ballot not found")
	ErrPINTaken  = errors.New("PIN already in use")
	ErrExhausted = errors.New("persistence exhausted")
)

// Store loads and saves ballots by PIN.
type Store interface {
	// Load returns the ballot for pin, or ErrNotFound.
	Load(ctx context.Context, pin string) (*models.Ballot, error)

	// Open is the lookup behind PIN entry. The shared store only accepts
	// known PINs; the file store creates a default ballot on first use.
	Open(ctx context.Context, pin string) (*models.Ballot, error)

	// Exists reports whether a ballot is stored under pin. For the file
	// store a PIN that would load as the default ballot does not exist.
	Exists(ctx context.Context, pin string) (bool, error)

	// Save inserts b or fully replaces the ballot with the same PIN.
	Save(ctx context.Context, b *models.Ballot) error

	// Update loads the ballot, applies fn and saves the result while
	// holding the PIN's write lock. Nothing is saved if fn fails.
	Update(ctx context.Context, pin string, fn func(*models.Ballot) error) (*models.Ballot, error)

	// Rename moves a ballot to a new PIN. Fails with ErrPINTaken if the
	// new PIN already has a ballot.
	Rename(ctx context.Context, oldPIN, newPIN string) error

	// ResetAll zeroes the counts of every stored ballot. Items that fail
	// are listed in the report and don't stop the others.
	ResetAll(ctx context.Context) (ResetReport, error)

	Close() error
}

// ResetReport summarizes a ResetAll pass
type ResetReport struct {
	Reset    int
	Failures []ResetFailure
}

// ResetFailure names an item that could not be reset: a PIN for the
// shared store, a file name for the file store.
type ResetFailure struct {
	Key string
	Err error
}
