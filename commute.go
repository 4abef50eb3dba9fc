package qsplit

import (
	"fmt"
	"strings"
)

/*
Relation decides whether two observables may be measured from the same
execution of a circuit. The Grouping Engine only ever places an observable
into a group when the relation holds against every current member.
*/
type Relation func(a, b Observable) (bool, error)

const (
	RelationCommuting = "commuting"
	RelationQubitWise = "qubitwise"
)

// RelationByName resolves "commuting" or "qubitwise" (case-insensitive).
// The empty name selects Commutes.
func RelationByName(name string) (Relation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RelationCommuting:
		return Commutes, nil
	case RelationQubitWise, "qwc", "qubit-wise":
		return QubitWiseCommutes, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRelation, name)
}

/*
Commutes reports whether a and b commute under Pauli algebra. Two Pauli
words commute iff the number of wires on which both are non-identity and
differ is even. Observables on disjoint wires always commute.
*/
func Commutes(a, b Observable) (bool, error) {
	n, err := disagreements(a, b)
	if err != nil {
		return false, err
	}
	return n%2 == 0, nil
}

/*
QubitWiseCommutes reports whether a and b commute on every wire
individually, which is the stricter condition for measuring both in one
shared single-qubit basis.
*/
func QubitWiseCommutes(a, b Observable) (bool, error) {
	n, err := disagreements(a, b)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// disagreements counts the wires on which a and b anti-commute.
func disagreements(a, b Observable) (int, error) {
	wa, err := a.PauliWord()
	if err != nil {
		return 0, err
	}
	wb, err := b.PauliWord()
	if err != nil {
		return 0, err
	}

	n := 0
	for wire, pa := range wa {
		pb, ok := wb[wire]
		if !ok || pa == PauliI || pb == PauliI {
			continue
		}
		if pa != pb {
			n++
		}
	}
	return n, nil
}
