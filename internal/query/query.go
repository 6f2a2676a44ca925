package query

import (
	"errors"
	"strings"
)

// DefaultPrefix biases every provider toward the knife domain.
const DefaultPrefix = "knife"

// ErrEmptyQuery is returned when the raw question is blank after trimming.
// Callers must skip the whole pipeline when they see it.
var ErrEmptyQuery = errors.New("empty query")

// Formatted is a provider-ready search string. Providers receive it verbatim.
type Formatted string

func (f Formatted) String() string { return string(f) }

// Format trims raw and prepends the domain prefix separated by a single space.
// No other transformation is applied: case, punctuation and inner whitespace
// reach the providers exactly as typed.
func Format(raw string, prefix string) (Formatted, error) {
	q := strings.TrimSpace(raw)
	if q == "" {
		return "", ErrEmptyQuery
	}
	p := strings.TrimSpace(prefix)
	if p == "" {
		return Formatted(q), nil
	}
	return Formatted(p + " " + q), nil
}
