package qsplit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// termPattern matches "PauliZ(3)", "Z3" and "Hadamard(0)".
var termPattern = regexp.MustCompile(`^([A-Za-z]+)\s*(?:\(\s*(\d+)\s*\)|(\d+))$`)

/*
ParseObservable parses the textual form of an observable. Terms are joined
with "@" and each term is either Name(wire) or a name directly followed by
the wire number:

	Z0 @ Z1
	PauliX(0) @ PauliY(4)
	Hadamard(2)
	Identity @ Z0

A bare "Identity" term names no wire and is dropped, so "Identity" alone
is the empty observable. The output of Observable.String parses back to
an equal observable.
*/
func ParseObservable(text string) (Observable, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Observable{}, fmt.Errorf("%w: empty", ErrInvalidObservable)
	}

	terms := strings.Split(text, "@")
	parts := make([]Observable, 0, len(terms))

	for _, term := range terms {
		if strings.TrimSpace(term) == "Identity" {
			continue
		}

		m := termPattern.FindStringSubmatch(strings.TrimSpace(term))
		if m == nil {
			return Observable{}, fmt.Errorf("%w: %q", ErrInvalidObservable, term)
		}

		digits := m[2]
		if digits == "" {
			digits = m[3]
		}
		wire, err := strconv.Atoi(digits)
		if err != nil {
			return Observable{}, fmt.Errorf("%w: wire %q: %w", ErrInvalidObservable, digits, err)
		}

		parts = append(parts, Named(m[1], wire))
	}

	return Tensor(parts...)
}

// MustParseObservable is like ParseObservable but panics on error.
func MustParseObservable(text string) Observable {
	o, err := ParseObservable(text)
	if err != nil {
		panic(err)
	}
	return o
}
