// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/danielhkuo/livesurvey/models"
)

func setupFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "questions_bank")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	return s, dir
}

func TestFileStoreLoadMissingReturnsDefault(t *testing.T) {
	s, dir := setupFileStore(t)

	b, err := s.Load(context.Background(), "4321")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b.PIN != "4321" || b.Question != models.DefaultQuestion {
		t.Errorf("expected default ballot for 4321, got %+v", b)
	}

	// Load alone doesn't create the file
	if _, err := os.Stat(filepath.Join(dir, "4321.yaml")); !os.IsNotExist(err) {
		t.Errorf("Load should not create a file, stat err = %v", err)
	}
}

func TestFileStoreOpenCreatesFile(t *testing.T) {
	s, dir := setupFileStore(t)

	if _, err := s.Open(context.Background(), "4321"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "4321.yaml"))
	if err != nil {
		t.Fatalf("Open should create the ballot file: %v", err)
	}
	for _, key := range []string{"PIN:", "question:", "options:", "votes:"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("file missing %s:\n%s", key, data)
		}
	}
}

func TestFileStoreRejectsBadPIN(t *testing.T) {
	s, _ := setupFileStore(t)

	for _, pin := range []string{"../escape", "a/b", ""} {
		_, err := s.Open(context.Background(), pin)
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Open(%q) expected ValidationError, got %v", pin, err)
		}
	}
}

func TestFileStoreSaveUpdateLoad(t *testing.T) {
	s, _ := setupFileStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, models.NewBallot("1234", "Q", []string{"A", "B"})); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(ctx, "1234", func(b *models.Ballot) error { return b.Vote("B") }); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// Unknown option: nothing saved
	if _, err := s.Update(ctx, "1234", func(b *models.Ballot) error { return b.Vote("Z") }); !errors.Is(err, models.ErrUnknownOption) {
		t.Errorf("expected ErrUnknownOption, got %v", err)
	}

	got, err := s.Load(ctx, "1234")
	if err != nil {
		t.Fatal(err)
	}
	if got.Votes["A"] != 0 || got.Votes["B"] != 1 {
		t.Errorf("expected {A:0 B:1}, got %v", got.Votes)
	}
}

func TestFileStoreRename(t *testing.T) {
	s, dir := setupFileStore(t)
	ctx := context.Background()

	b := models.NewBallot("1111", "Q", []string{"A"})
	b.Votes["A"] = 2
	s.Save(ctx, b)
	s.Save(ctx, models.NewBallot("2222", "Q", []string{"A"}))

	if err := s.Rename(ctx, "1111", "2222"); !errors.Is(err, ErrPINTaken) {
		t.Errorf("expected ErrPINTaken, got %v", err)
	}
	if err := s.Rename(ctx, "nope", "3333"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Rename(ctx, "1111", "3333"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "1111.yaml")); !os.IsNotExist(err) {
		t.Error("old file should be removed")
	}
	got, _ := s.Load(ctx, "3333")
	if got.PIN != "3333" || got.Votes["A"] != 2 {
		t.Errorf("renamed ballot wrong: %+v", got)
	}
}

func TestFileStoreResetAllSkipsCorruptFiles(t *testing.T) {
	s, dir := setupFileStore(t)
	ctx := context.Background()

	b1 := models.NewBallot("1111", "Q1", []string{"A", "B"})
	b1.Votes["A"] = 3
	b2 := models.NewBallot("2222", "Q2", []string{"C"})
	b2.Votes["C"] = 8
	s.Save(ctx, b1)
	s.Save(ctx, b2)

	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("question: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Not a ballot file
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644)

	report, err := s.ResetAll(ctx)
	if err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}
	if report.Reset != 2 {
		t.Errorf("expected 2 reset, got %d", report.Reset)
	}
	if len(report.Failures) != 1 || report.Failures[0].Key != "broken.yaml" {
		t.Errorf("expected broken.yaml failure, got %+v", report.Failures)
	}

	for _, pin := range []string{"1111", "2222"} {
		got, err := s.Load(ctx, pin)
		if err != nil {
			t.Fatal(err)
		}
		if got.Total() != 0 {
			t.Errorf("ballot %s not reset: %v", pin, got.Votes)
		}
	}
	got, _ := s.Load(ctx, "1111")
	if got.Question != "Q1" || len(got.Options) != 2 {
		t.Errorf("reset changed question/options: %+v", got)
	}
}

func TestFileStoreConcurrentVotes(t *testing.T) {
	s, _ := setupFileStore(t)
	ctx := context.Background()

	s.Save(ctx, models.NewBallot("1234", "Q", []string{"A", "B"}))

	const voters = 25
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Update(ctx, "1234", func(b *models.Ballot) error { return b.Vote("B") }); err != nil {
				t.Errorf("vote failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.Load(ctx, "1234")
	if got.Votes["B"] != voters {
		t.Errorf("expected %d votes, got %d", voters, got.Votes["B"])
	}
}

func TestPinLocksCleanup(t *testing.T) {
	var l pinLocks

	unlock := l.lockPair("b", "a")
	if len(l.locks) != 2 {
		t.Errorf("expected 2 held locks, got %d", len(l.locks))
	}
	unlock()

	if len(l.locks) != 0 {
		t.Errorf("expected locks to be released, %d left", len(l.locks))
	}
}

func TestFileStoreExists(t *testing.T) {
	s, _ := setupFileStore(t)
	ctx := context.Background()

	if ok, err := s.Exists(ctx, "1234"); err != nil || ok {
		t.Errorf("Exists() before save = %v, %v", ok, err)
	}
	if err := s.Save(ctx, models.NewBallot("1234", "Q", []string{"A"})); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Exists(ctx, "1234"); err != nil || !ok {
		t.Errorf("Exists() after save = %v, %v", ok, err)
	}
}

func TestFileStoreSaveReplacesWholeFile(t *testing.T) {
	s, dir := setupFileStore(t)
	ctx := context.Background()

	long := models.NewBallot("1234", "A much longer question than the next one?", []string{"First", "Second", "Third"})
	if err := s.Save(ctx, long); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, models.NewBallot("1234", "Short?", []string{"A"})); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "1234.yaml" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only 1234.yaml, found %v", names)
	}

	got, err := s.Load(ctx, "1234")
	if err != nil {
		t.Fatalf("file unreadable after replace: %v", err)
	}
	if got.Question != "Short?" || len(got.Options) != 1 {
		t.Errorf("unexpected ballot %+v", got)
	}
}
