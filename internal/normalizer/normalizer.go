// Package normalizer provides pure string normalization for keyword terms.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options control optional normalization behavior.
type Options struct {
	// StripAccents decomposes and removes diacritical marks ("ação" -> "acao").
	StripAccents bool
	// CaseSensitive skips the lower-case fold.
	CaseSensitive bool
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize trims, collapses internal whitespace to single spaces, and
// lower-cases the term. It is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(term string) string {
	return NormalizeWith(term, Options{})
}

// NormalizeWith applies Normalize with explicit options.
func NormalizeWith(term string, opts Options) string {
	out := collapseSpace(term)
	if !opts.CaseSensitive {
		out = strings.ToLower(out)
	}
	if opts.StripAccents {
		if stripped, _, err := transform.String(accentStripper, out); err == nil {
			out = stripped
		}
	}
	return out
}

// NormalizeAny is the defensive entry point for untyped collector payloads.
// Non-string values, including nil, normalize to the empty string so that the
// validator downstream rejects them.
func NormalizeAny(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Normalize(s)
}

// collapseSpace trims the term and folds runs of whitespace and control
// characters into a single space.
func collapseSpace(term string) string {
	var b strings.Builder
	b.Grow(len(term))
	pendingSpace := false
	for _, r := range term {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
