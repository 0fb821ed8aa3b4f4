package models

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a ballot, used for the raw import form
// and for the file store.
type Document struct {
	PIN      string         `yaml:"PIN"`
	Question string         `yaml:"question"`
	Options  []string       `yaml:"options"`
	Votes    map[string]int `yaml:"votes"`
}

// rawDocument keeps pointers so absent keys can be told apart from empty ones.
// PIN is a node so that both 1234 and "1234" keep their literal text; an
// absent key leaves it with Kind 0.
type rawDocument struct {
	PIN      yaml.Node      `yaml:"PIN"`
	Question *string        `yaml:"question"`
	Options  *[]string      `yaml:"options"`
	Votes    map[string]int `yaml:"votes"`
}

// MarshalDocument renders b as YAML
func MarshalDocument(b *Ballot) ([]byte, error) {
	doc := Document{
		PIN:      b.PIN,
		Question: b.Question,
		Options:  b.Options,
		Votes:    b.Votes,
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ballot %s: %w", b.PIN, err)
	}
	return out, nil
}

// ParseDocument decodes and validates a YAML ballot. PIN, question and
// options are required; votes is optional and absent options count zero.
// Every rejection is a *ValidationError.
func ParseDocument(data []byte) (*Ballot, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, invalid("Error parsing YAML: %v", err)
	}

	var missing []string
	pin := ""
	if raw.PIN.Kind == yaml.ScalarNode && raw.PIN.Tag != "!!null" {
		pin = strings.TrimSpace(raw.PIN.Value)
	}
	if pin == "" {
		missing = append(missing, "PIN")
	}
	if raw.Question == nil || strings.TrimSpace(*raw.Question) == "" {
		missing = append(missing, "question")
	}
	if raw.Options == nil {
		missing = append(missing, "options")
	}
	if len(missing) > 0 {
		return nil, invalid("Invalid YAML structure, missing %s. Please include \"PIN\", \"question\", and \"options\".", strings.Join(missing, ", "))
	}

	if err := ValidatePIN(pin); err != nil {
		return nil, err
	}
	options, err := CleanOptions(*raw.Options)
	if err != nil {
		return nil, err
	}

	b := NewBallot(pin, strings.TrimSpace(*raw.Question), options)
	for opt, count := range raw.Votes {
		if !b.HasOption(opt) {
			return nil, invalid("votes lists %q, which is not one of the options", opt)
		}
		if count < 0 {
			return nil, invalid("vote count for option %q is negative", opt)
		}
		b.Votes[opt] = count
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
