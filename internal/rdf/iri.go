package rdf

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidIRI is returned by ParseIRI for malformed identifiers.
var ErrInvalidIRI = errors.New("invalid IRI")

// ParseIRI validates an absolute IRI and returns it as a Term.
//
// The check follows the RFC 3987 shape closely enough to reject what the
// proof vocabulary can never name: a missing or malformed scheme, whitespace,
// the characters <>"{}|\^`, broken percent-escapes, invalid UTF-8, more than
// one fragment and unbalanced IP-literal brackets in the authority. Relative
// references are rejected.
func ParseIRI(s string) (Term, error) {
	if s == "" {
		return Term{}, fmt.Errorf("%w: empty string", ErrInvalidIRI)
	}
	if !utf8.ValidString(s) {
		return Term{}, fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidIRI, s)
	}
	if strings.Count(s, "#") > 1 {
		return Term{}, fmt.Errorf("%w: %q has more than one fragment", ErrInvalidIRI, s)
	}

	colon := strings.IndexByte(s, ':')
	if colon <= 0 {
		return Term{}, fmt.Errorf("%w: %q has no scheme", ErrInvalidIRI, s)
	}
	if !validScheme(s[:colon]) {
		return Term{}, fmt.Errorf("%w: %q has a malformed scheme", ErrInvalidIRI, s)
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c <= 0x20 || c == 0x7f:
			return Term{}, fmt.Errorf("%w: %q contains a control or space character at %d", ErrInvalidIRI, s, i)
		case strings.IndexByte("<>\"{}|\\^`", c) >= 0:
			return Term{}, fmt.Errorf("%w: %q contains %q at %d", ErrInvalidIRI, s, c, i)
		case c == '%':
			if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
				return Term{}, fmt.Errorf("%w: %q has a bad percent-escape at %d", ErrInvalidIRI, s, i)
			}
		}
	}

	if !balancedAuthority(s[colon+1:]) {
		return Term{}, fmt.Errorf("%w: %q has unbalanced brackets in its authority", ErrInvalidIRI, s)
	}

	return IRI(s), nil
}

// balancedAuthority checks the authority of a hierarchical part: brackets
// may only enclose the host as one IP literal.
func balancedAuthority(rest string) bool {
	if !strings.HasPrefix(rest, "//") {
		return true
	}
	auth := rest[2:]
	if end := strings.IndexAny(auth, "/?#"); end >= 0 {
		auth = auth[:end]
	}
	open, closing := strings.IndexByte(auth, '['), strings.IndexByte(auth, ']')
	switch {
	case open < 0 && closing < 0:
		return true
	case open < 0 || closing < open:
		return false
	}
	return strings.Count(auth, "[") == 1 && strings.Count(auth, "]") == 1
}

// MustIRI is ParseIRI for package-level constants and tests.
func MustIRI(s string) Term {
	t, err := ParseIRI(s)
	if err != nil {
		panic(err)
	}
	return t
}

func validScheme(scheme string) bool {
	for i := 0; i < len(scheme); i++ {
		c := scheme[i]
		switch {
		case isAlpha(c):
		case i > 0 && (isDigit(c) || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
