package qsplit

import (
	"fmt"
	"strings"
)

// Pauli is a single-qubit Pauli operator, including the identity.
type Pauli uint8

const (
	PauliI Pauli = iota
	PauliX
	PauliY
	PauliZ
)

func (p Pauli) String() string {
	switch p {
	case PauliX:
		return "PauliX"
	case PauliY:
		return "PauliY"
	case PauliZ:
		return "PauliZ"
	default:
		return "Identity"
	}
}

// pauliNames maps every accepted operator spelling onto its Pauli.
var pauliNames = map[string]Pauli{
	"I":        PauliI,
	"Identity": PauliI,
	"X":        PauliX,
	"PauliX":   PauliX,
	"Y":        PauliY,
	"PauliY":   PauliY,
	"Z":        PauliZ,
	"PauliZ":   PauliZ,
}

// Factor is a named operator acting on a single wire.
type Factor struct {
	Name string
	Wire int
}

// Pauli reports the Pauli operator the factor names, if it names one.
func (f Factor) Pauli() (Pauli, bool) {
	p, ok := pauliNames[f.Name]
	return p, ok
}

func (f Factor) String() string {
	if p, ok := f.Pauli(); ok {
		return fmt.Sprintf("%s(%d)", p, f.Wire)
	}
	return fmt.Sprintf("%s(%d)", f.Name, f.Wire)
}

/*
Observable is a measurement target: a tensor product of single-wire
operators acting on disjoint wires. The zero value is the empty product,
which behaves like the identity on every wire.

Observables are immutable. Every accessor hands out copies.
*/
type Observable struct {
	factors []Factor
}

// X returns the Pauli-X observable on wire w.
func X(w int) Observable { return single(PauliX.String(), w) }

// Y returns the Pauli-Y observable on wire w.
func Y(w int) Observable { return single(PauliY.String(), w) }

// Z returns the Pauli-Z observable on wire w.
func Z(w int) Observable { return single(PauliZ.String(), w) }

// I returns the identity observable on wire w.
func I(w int) Observable { return single(PauliI.String(), w) }

// Named returns a single-wire observable for an arbitrary operator name,
// such as "Hadamard". Names that spell a Pauli are canonicalised.
func Named(name string, w int) Observable {
	if p, ok := pauliNames[name]; ok {
		name = p.String()
	}
	return single(name, w)
}

func single(name string, w int) Observable {
	return Observable{factors: []Factor{{Name: name, Wire: w}}}
}

/*
Tensor builds the tensor product of the given observables. The operands
must act on disjoint wires; factor order follows operand order.
*/
func Tensor(obs ...Observable) (Observable, error) {
	seen := make(map[int]bool)
	factors := make([]Factor, 0, len(obs))

	for _, o := range obs {
		for _, f := range o.factors {
			if seen[f.Wire] {
				return Observable{}, fmt.Errorf("%w: wire %d", ErrOverlappingWires, f.Wire)
			}
			seen[f.Wire] = true
			factors = append(factors, f)
		}
	}

	return Observable{factors: factors}, nil
}

// MustTensor is like Tensor but panics on overlapping wires.
func MustTensor(obs ...Observable) Observable {
	o, err := Tensor(obs...)
	if err != nil {
		panic(err)
	}
	return o
}

// Factors returns a copy of the observable's single-wire factors.
func (o Observable) Factors() []Factor {
	out := make([]Factor, len(o.factors))
	copy(out, o.factors)
	return out
}

// Wires returns the wires the observable acts on, in factor order.
func (o Observable) Wires() []int {
	wires := make([]int, len(o.factors))
	for i, f := range o.factors {
		wires[i] = f.Wire
	}
	return wires
}

/*
PauliWord decomposes the observable into its per-wire Pauli factors.
Wires the observable does not mention are implicitly the identity and are
absent from the map. Any factor that is not a Pauli or the identity makes
the observable undecomposable.
*/
func (o Observable) PauliWord() (map[int]Pauli, error) {
	word := make(map[int]Pauli, len(o.factors))

	for _, f := range o.factors {
		p, ok := f.Pauli()
		if !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrUnsupportedObservable, f.Name, o)
		}
		word[f.Wire] = p
	}

	return word, nil
}

// Equal reports whether both observables have the same factors in the same order.
func (o Observable) Equal(other Observable) bool {
	if len(o.factors) != len(other.factors) {
		return false
	}
	for i := range o.factors {
		if o.factors[i] != other.factors[i] {
			return false
		}
	}
	return true
}

func (o Observable) String() string {
	if len(o.factors) == 0 {
		return "Identity"
	}

	parts := make([]string, len(o.factors))
	for i, f := range o.factors {
		parts[i] = f.String()
	}
	return strings.Join(parts, " @ ")
}

// MarshalText implements encoding.TextMarshaler.
func (o Observable) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Observable) UnmarshalText(text []byte) error {
	parsed, err := ParseObservable(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
