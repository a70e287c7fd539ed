// Package validate implements term-shape validators for keyword candidates.
package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/seoforge/keyword-engine/internal/keyword"
)

// Default rune-count bounds applied when a Config leaves them unset.
const (
	DefaultMinLength = 2
	DefaultMaxLength = 100
)

// Config controls the baseline validator. Zero values fall back to defaults.
type Config struct {
	// MinLength and MaxLength bound the term's rune count, inclusive.
	MinLength int
	MaxLength int
	// AllowedChars, when non-empty, restricts terms to this character set.
	AllowedChars string
}

// TermValidator is the baseline implementation of keyword.TermValidator.
// It judges string shape only; numeric bounds belong to the cleaning stage.
// Callers are expected to normalize terms before validation.
type TermValidator struct {
	minLength int
	maxLength int
	allowed   map[rune]struct{}
}

// New builds a baseline validator from cfg.
func New(cfg Config) (*TermValidator, error) {
	if cfg.MinLength == 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.MinLength < 1 {
		return nil, fmt.Errorf("min length must be >= 1, got %d", cfg.MinLength)
	}
	if cfg.MaxLength < cfg.MinLength {
		return nil, fmt.Errorf("max length %d must be >= min length %d", cfg.MaxLength, cfg.MinLength)
	}
	v := &TermValidator{
		minLength: cfg.MinLength,
		maxLength: cfg.MaxLength,
	}
	if cfg.AllowedChars != "" {
		v.allowed = make(map[rune]struct{}, len(cfg.AllowedChars))
		for _, r := range cfg.AllowedChars {
			v.allowed[r] = struct{}{}
		}
	}
	return v, nil
}

// MustNew is New for static configuration; it panics on invalid cfg.
func MustNew(cfg Config) *TermValidator {
	v, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate reports whether term is well-formed. It never returns an error;
// the error slot exists so custom validators with fallible checks can share
// the interface.
func (v *TermValidator) Validate(term string) (bool, error) {
	if term == "" {
		return false, nil
	}
	length := utf8.RuneCountInString(term)
	if length < v.minLength || length > v.maxLength {
		return false, nil
	}
	for _, r := range term {
		if unicode.IsControl(r) {
			return false, nil
		}
		if v.allowed != nil {
			if _, ok := v.allowed[r]; !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

// BlacklistValidator wraps another validator and additionally rejects terms
// containing any configured phrase. Matching is case-insensitive substring.
type BlacklistValidator struct {
	inner   keyword.TermValidator
	phrases []string
}

// NewBlacklist wires a phrase blacklist in front of inner. Empty phrases are
// dropped; phrases are matched against the lower-cased term.
func NewBlacklist(inner keyword.TermValidator, phrases []string) *BlacklistValidator {
	kept := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			kept = append(kept, p)
		}
	}
	return &BlacklistValidator{inner: inner, phrases: kept}
}

// Validate rejects blacklisted terms, then defers to the wrapped validator.
func (v *BlacklistValidator) Validate(term string) (bool, error) {
	lowered := strings.ToLower(term)
	for _, phrase := range v.phrases {
		if strings.Contains(lowered, phrase) {
			return false, nil
		}
	}
	if v.inner == nil {
		return true, nil
	}
	ok, err := v.inner.Validate(term)
	if err != nil {
		return false, fmt.Errorf("wrapped validator: %w", err)
	}
	return ok, nil
}
