// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielhkuo/livesurvey/models"
)

const fileExt = ".yaml"

// FileStore keeps each ballot in <dir>/<pin>.yaml. Every save rewrites
// the whole file in place.
type FileStore struct {
	dir   string
	locks pinLocks
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ballot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(pin string) string {
	return filepath.Join(s.dir, pin+fileExt)
}

// read returns the stored ballot, or the default ballot and found=false
// when the PIN has no file yet
func (s *FileStore) read(pin string) (b *models.Ballot, found bool, err error) {
	if err := models.ValidatePIN(pin); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(s.path(pin))
	if errors.Is(err, fs.ErrNotExist) {
		return models.DefaultBallot(pin), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ballot %s: %w", pin, err)
	}

	b, err = models.ParseDocument(data)
	if err != nil {
		return nil, true, fmt.Errorf("ballot file %s is invalid: %w", filepath.Base(s.path(pin)), err)
	}
	// The file name is the key
	b.PIN = pin
	return b, true, nil
}

func (s *FileStore) write(b *models.Ballot) error {
	if err := b.Validate(); err != nil {
		return err
	}
	data, err := models.MarshalDocument(b)
	if err != nil {
		return err
	}
	// Readers don't take the PIN lock, so replace the file in one rename
	tmp, err := os.CreateTemp(s.dir, b.PIN+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write ballot %s: %w", b.PIN, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ballot %s: %w", b.PIN, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write ballot %s: %w", b.PIN, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write ballot %s: %w", b.PIN, err)
	}
	if err := os.Rename(tmp.Name(), s.path(b.PIN)); err != nil {
		return fmt.Errorf("failed to write ballot %s: %w", b.PIN, err)
	}
	return nil
}

// Load never returns ErrNotFound: a PIN without a file gets the default ballot
func (s *FileStore) Load(ctx context.Context, pin string) (*models.Ballot, error) {
	b, _, err := s.read(pin)
	return b, err
}

// Open loads the ballot and writes the default file for a new PIN
func (s *FileStore) Open(ctx context.Context, pin string) (*models.Ballot, error) {
	unlock := s.locks.lock(pin)
	defer unlock()

	b, found, err := s.read(pin)
	if err != nil {
		return nil, err
	}
	if !found {
		if err := s.write(b); err != nil {
			return nil, err
		}
		slog.Info("created ballot file", "pin", pin)
	}
	return b, nil
}

func (s *FileStore) Exists(ctx context.Context, pin string) (bool, error) {
	if err := models.ValidatePIN(pin); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(pin))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check ballot %s: %w", pin, err)
	}
	return true, nil
}

func (s *FileStore) Save(ctx context.Context, b *models.Ballot) error {
	unlock := s.locks.lock(b.PIN)
	defer unlock()

	return s.write(b)
}

func (s *FileStore) Update(ctx context.Context, pin string, fn func(*models.Ballot) error) (*models.Ballot, error) {
	unlock := s.locks.lock(pin)
	defer unlock()

	b, _, err := s.read(pin)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	if err := s.write(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *FileStore) Rename(ctx context.Context, oldPIN, newPIN string) error {
	if oldPIN == newPIN {
		return nil
	}
	if err := models.ValidatePIN(newPIN); err != nil {
		return err
	}

	unlock := s.locks.lockPair(oldPIN, newPIN)
	defer unlock()

	if _, err := os.Stat(s.path(newPIN)); err == nil {
		return ErrPINTaken
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check pin %s: %w", newPIN, err)
	}

	b, found, err := s.read(oldPIN)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	b.PIN = newPIN
	if err := s.write(b); err != nil {
		return err
	}
	if err := os.Remove(s.path(oldPIN)); err != nil {
		return fmt.Errorf("failed to remove old ballot file %s: %w", oldPIN, err)
	}
	return nil
}

func (s *FileStore) ResetAll(ctx context.Context) (ResetReport, error) {
	var report ResetReport

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return report, fmt.Errorf("failed to list ballot files: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := s.resetOne(strings.TrimSuffix(name, fileExt)); err != nil {
			slog.Error("failed to reset ballot file", "file", name, "error", err)
			report.Failures = append(report.Failures, ResetFailure{Key: name, Err: err})
			continue
		}
		report.Reset++
	}
	return report, nil
}

func (s *FileStore) resetOne(pin string) error {
	unlock := s.locks.lock(pin)
	defer unlock()

	b, found, err := s.read(pin)
	if err != nil {
		return err
	}
	if !found {
		// Renamed away since the directory was listed
		return nil
	}
	b.Reset()
	return s.write(b)
}

func (s *FileStore) Close() error {
	return nil
}
