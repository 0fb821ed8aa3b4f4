package models

import (
	"errors"
	"fmt"
	"strings"
)

const maxPINLength = 64

// Default ballot seeded into an empty store
var (
	DefaultQuestion = "What's your favorite programming paradigm?"
	DefaultOptions  = []string{"Imperative, like C", "Functional, like Haskell", "Other"}
	DefaultPIN      = "0"
)

var ErrUnknownOption = errors.New("unknown option")

// ValidationError reports input that was rejected before touching the store.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Domain types

// Ballot is one question, its options and their vote counts, keyed by PIN.
// Votes always holds exactly one entry per option.
type Ballot struct {
	PIN      string
	Question string
	Options  []string
	Votes    map[string]int
}

// OptionResult is one row of a rendered result table
type OptionResult struct {
	Label   string
	Count   int
	Percent float64
}

// NewBallot returns a ballot with every option at zero votes
func NewBallot(pin, question string, options []string) *Ballot {
	b := &Ballot{
		PIN:      pin,
		Question: question,
		Options:  append([]string(nil), options...),
		Votes:    make(map[string]int, len(options)),
	}
	for _, opt := range b.Options {
		b.Votes[opt] = 0
	}
	return b
}

// DefaultBallot returns the seed question under the given PIN
func DefaultBallot(pin string) *Ballot {
	return NewBallot(pin, DefaultQuestion, DefaultOptions)
}

// ValidatePIN checks that pin is usable as a key and as a file name
func ValidatePIN(pin string) error {
	if pin == "" {
		return invalid("PIN is required")
	}
	if len(pin) > maxPINLength {
		return invalid("PIN must be at most %d characters", maxPINLength)
	}
	for _, r := range pin {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
		if !ok {
			return invalid("PIN may only contain letters, digits, '-' and '_'")
		}
	}
	return nil
}

// CleanOptions trims labels, splits multi-line entries and drops blanks.
// Duplicate labels are rejected since they would share one tally.
func CleanOptions(raw []string) ([]string, error) {
	var options []string
	seen := make(map[string]bool)
	for _, entry := range raw {
		for _, line := range strings.Split(entry, "\n") {
			label := strings.TrimSpace(line)
			if label == "" {
				continue
			}
			if seen[label] {
				return nil, invalid("duplicate option %q", label)
			}
			seen[label] = true
			options = append(options, label)
		}
	}
	if len(options) == 0 {
		return nil, invalid("at least one option is required")
	}
	return options, nil
}

// Validate checks the ballot invariants
func (b *Ballot) Validate() error {
	if err := ValidatePIN(b.PIN); err != nil {
		return err
	}
	if strings.TrimSpace(b.Question) == "" {
		return invalid("question is required")
	}
	if len(b.Options) == 0 {
		return invalid("at least one option is required")
	}
	seen := make(map[string]bool, len(b.Options))
	for _, opt := range b.Options {
		if opt == "" {
			return invalid("options cannot be empty")
		}
		if seen[opt] {
			return invalid("duplicate option %q", opt)
		}
		seen[opt] = true
		count, ok := b.Votes[opt]
		if !ok {
			return invalid("missing vote count for option %q", opt)
		}
		if count < 0 {
			return invalid("vote count for option %q is negative", opt)
		}
	}
	if len(b.Votes) != len(b.Options) {
		for opt := range b.Votes {
			if !seen[opt] {
				return invalid("vote count for unknown option %q", opt)
			}
		}
	}
	return nil
}

// HasOption reports whether label is one of the ballot's options
func (b *Ballot) HasOption(label string) bool {
	_, ok := b.Votes[label]
	return ok
}

// Vote adds one vote to option. Options that are not on the ballot
// leave every count untouched and return ErrUnknownOption.
func (b *Ballot) Vote(option string) error {
	if !b.HasOption(option) {
		return ErrUnknownOption
	}
	b.Votes[option]++
	return nil
}

// Reset zeroes every count
func (b *Ballot) Reset() {
	for opt := range b.Votes {
		b.Votes[opt] = 0
	}
}

// Redefine replaces question and options. Counts carry over for options
// present in both the old and new sets; new options start at zero.
func (b *Ballot) Redefine(question string, options []string) {
	votes := make(map[string]int, len(options))
	for _, opt := range options {
		votes[opt] = b.Votes[opt]
	}
	b.Question = question
	b.Options = append([]string(nil), options...)
	b.Votes = votes
}

// Total is the sum of all counts
func (b *Ballot) Total() int {
	total := 0
	for _, n := range b.Votes {
		total += n
	}
	return total
}

// Results returns counts and shares in display order
func (b *Ballot) Results() []OptionResult {
	total := b.Total()
	results := make([]OptionResult, 0, len(b.Options))
	for _, opt := range b.Options {
		r := OptionResult{Label: opt, Count: b.Votes[opt]}
		if total > 0 {
			r.Percent = float64(r.Count) * 100 / float64(total)
		}
		results = append(results, r)
	}
	return results
}

// Clone returns a deep copy
func (b *Ballot) Clone() *Ballot {
	c := &Ballot{
		PIN:      b.PIN,
		Question: b.Question,
		Options:  append([]string(nil), b.Options...),
		Votes:    make(map[string]int, len(b.Votes)),
	}
	for k, v := range b.Votes {
		c.Votes[k] = v
	}
	return c
}
