// Package keys derives the string key that ties a problem to the location
// it was reported against. Locations and problems live in separate lists
// with no foreign key, so both sides are reduced to the same normalized
// "<municipality> - <name>" form and compared for equality.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/BusselW/DDH3/internal/models"
)

// Separator joins the normalized municipality and name parts of a key.
const Separator = " - "

// Normalize lowercases s, keeps only ASCII letters, digits, underscores,
// hyphens and whitespace, and collapses whitespace runs to single spaces.
// The result never has leading or trailing space and Normalize is
// idempotent.
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		switch {
		case unicode.IsSpace(r):
			return ' '
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// DeriveKey builds the join key for a municipality and a location name (or
// problem title). It fails with ErrInvalidArgument when either part is
// blank.
func DeriveKey(municipality, name string) (string, error) {
	if strings.TrimSpace(municipality) == "" {
		return "", fmt.Errorf("%w: municipality is empty", models.ErrInvalidArgument)
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: name is empty", models.ErrInvalidArgument)
	}
	return Normalize(municipality) + Separator + Normalize(name), nil
}

// ParseKey splits a derived key back into its municipality and name parts.
// Only the first separator counts, so names that contain " - " survive.
func ParseKey(key string) (municipality, name string, ok bool) {
	municipality, name, ok = strings.Cut(key, Separator)
	return municipality, name, ok
}
