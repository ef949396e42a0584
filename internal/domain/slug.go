package domain

import (
	"errors"
	"strings"
	"unicode"
)

// Slug is the canonical document identifier derived from a human readable name.
type Slug string

// ErrEmptySlugSource indicates the input could not produce a usable slug.
var ErrEmptySlugSource = errors.New("domain: slug source is empty")

// Slugify derives the storage key for a catalog entity from its display name.
//
// The transformation rules, applied over the trimmed input:
//   - everything is lowercased
//   - each run of whitespace becomes a single hyphen
//   - "/" becomes "@" (category titles may contain path-like names)
//   - any other rune outside [a-z0-9-@] is dropped
//
// Slugify is the single key-derivation function in this repository. Every
// create, lookup, update, and bulk path must go through it so that keys
// written on one path always resolve on another. It is idempotent:
// Slugify(string(Slugify(n))) == Slugify(n) for every accepted n.
func Slugify(name string) (Slug, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrEmptySlugSource
	}

	// Whitespace runs collapse to a hyphen before invalid runes are
	// dropped, so a name like "Linen & Equipment" keeps a hyphen on each
	// side of the removed "&". The admin UI relies on those exact ids.
	var b strings.Builder
	b.Grow(len(trimmed))
	inGap := false
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			if !inGap {
				b.WriteByte('-')
				inGap = true
			}
			continue
		}
		inGap = false
		r = unicode.ToLower(r)
		switch {
		case r == '/':
			r = '@'
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '@':
		default:
			continue
		}
		b.WriteRune(r)
	}

	slug := b.String()
	if slug == "" {
		return "", ErrEmptySlugSource
	}
	return Slug(slug), nil
}

// String returns the slug as a plain string.
func (s Slug) String() string { return string(s) }
