// Package names validates SQL identifiers that are interpolated literally
// into statement text.
//
// Identifiers are never quoted. Quoting would make them case-sensitive, so
// instead every name is checked against a small character grammar: dot
// separated segments of ASCII letters, digits and underscores, where no
// segment may start with a digit. A name that passes Identifier can be
// placed into SQL text as-is.
package names

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidIdentifier reports a name outside the identifier grammar.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrTooManyTokens reports a name-or-alias expression with more than three words.
	ErrTooManyTokens = errors.New("too many tokens in name or alias")

	// ErrExpectedAsKeyword reports a three-word expression whose middle word is not AS.
	ErrExpectedAsKeyword = errors.New("AS expected")

	// ErrMisplacedKeyword reports an AS keyword in a name position.
	ErrMisplacedKeyword = errors.New("misplaced AS")

	// ErrEmptyNameOrAlias reports an empty or whitespace-only expression.
	ErrEmptyNameOrAlias = errors.New("empty name or alias")
)

// Star selects every column.
const Star = "*"

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// startsSegment reports whether c may open a dot-separated segment.
func startsSegment(c byte) bool {
	return isLetter(c) || c == '_'
}

// allowed reports whether c may appear anywhere in an identifier.
func allowed(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '.'
}

// Identifier checks name against the identifier grammar and returns it
// unchanged. Validated names are never rewritten, so Identifier is
// idempotent.
func Identifier(name string) (string, error) {
	var invalid []string
	seen := make(map[byte]bool)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !allowed(c) && !seen[c] {
			seen[c] = true
			invalid = append(invalid, fmt.Sprintf("%q", c))
		}
	}
	if len(invalid) > 0 {
		return "", fmt.Errorf("%w: invalid chars in %q: %s",
			ErrInvalidIdentifier, name, strings.Join(invalid, ", "))
	}
	for _, seg := range strings.Split(name, ".") {
		if seg == "" {
			return "", fmt.Errorf("%w: empty segment in %q", ErrInvalidIdentifier, name)
		}
		if !startsSegment(seg[0]) {
			return "", fmt.Errorf("%w: %q must not start a segment in %q",
				ErrInvalidIdentifier, seg[0], name)
		}
	}
	return name, nil
}

// Identifiers validates every name, stopping at the first failure.
func Identifiers(list ...string) ([]string, error) {
	for _, n := range list {
		if _, err := Identifier(n); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// IsIdentifier reports whether name passes Identifier.
func IsIdentifier(name string) bool {
	_, err := Identifier(name)
	return err == nil
}

func isAs(word string) bool {
	return strings.EqualFold(word, "AS")
}

// NameOrAlias validates a column expression that may carry an alias:
//
//	name
//	name alias
//	name AS alias
//	*
//
// The expression is returned unchanged on success.
func NameOrAlias(expr string) (string, error) {
	if expr == Star {
		return expr, nil
	}
	words := strings.Fields(expr)
	switch {
	case len(words) == 0:
		return "", fmt.Errorf("%w: %q", ErrEmptyNameOrAlias, expr)
	case len(words) > 3:
		return "", fmt.Errorf("%w: %q", ErrTooManyTokens, expr)
	case len(words) == 3:
		if !isAs(words[1]) {
			return "", fmt.Errorf("%w in %q, found %q", ErrExpectedAsKeyword, expr, words[1])
		}
		words = []string{words[0], words[2]}
	}
	for _, w := range words {
		if isAs(w) {
			return "", fmt.Errorf("%w: %q", ErrMisplacedKeyword, expr)
		}
		if _, err := Identifier(w); err != nil {
			return "", err
		}
	}
	return expr, nil
}
