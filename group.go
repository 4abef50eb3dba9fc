package qsplit

import (
	"fmt"

	"github.com/theapemachine/errnie"
)

// Slot locates one original measurement inside a Partition.
type Slot struct {
	Group    int `json:"group"`
	Position int `json:"position"`
}

/*
Group is an ordered set of pairwise-compatible measurements that can be
taken from a single circuit execution. Indices[k] holds the original
position of Measurements[k].
*/
type Group struct {
	Measurements []MeasurementRequest `json:"measurements"`
	Indices      []int                `json:"indices"`
}

// Len returns the number of measurements in the group.
func (g Group) Len() int {
	return len(g.Measurements)
}

/*
Partition is the outcome of grouping the measurements of one tape. Slots
has one entry per original measurement, in original order, pointing at
the group and position the measurement was placed in.
*/
type Partition struct {
	Groups []Group `json:"groups"`
	Slots  []Slot  `json:"slots"`
}

// Len returns the number of original measurements.
func (p *Partition) Len() int {
	return len(p.Slots)
}

// Split reports whether the measurements had to be spread over more than one group.
func (p *Partition) Split() bool {
	return len(p.Groups) > 1
}

// Validate checks that every original measurement sits in exactly one group slot.
func (p *Partition) Validate() error {
	total := 0
	for gi, g := range p.Groups {
		if len(g.Indices) != len(g.Measurements) {
			return fmt.Errorf("group %d: %d indices for %d measurements", gi, len(g.Indices), len(g.Measurements))
		}
		total += g.Len()
	}
	if total != len(p.Slots) {
		return fmt.Errorf("groups hold %d measurements, expected %d", total, len(p.Slots))
	}

	for i, s := range p.Slots {
		if s.Group < 0 || s.Group >= len(p.Groups) {
			return fmt.Errorf("slot %d: group %d out of range", i, s.Group)
		}
		g := p.Groups[s.Group]
		if s.Position < 0 || s.Position >= g.Len() {
			return fmt.Errorf("slot %d: position %d out of range", i, s.Position)
		}
		if g.Indices[s.Position] != i {
			return fmt.Errorf("slot %d: group %d position %d holds index %d", i, s.Group, s.Position, g.Indices[s.Position])
		}
	}
	return nil
}

// GroupOption configures GroupMeasurements.
type GroupOption func(*grouper)

type grouper struct {
	relation Relation
}

// WithRelation sets the compatibility relation used to place measurements.
// The default is Commutes.
func WithRelation(r Relation) GroupOption {
	return func(g *grouper) {
		if r != nil {
			g.relation = r
		}
	}
}

/*
GroupMeasurements partitions measurements into groups of pairwise
commuting observables using greedy first-fit placement. Each measurement,
in input order, joins the first existing group whose every member it is
compatible with, or opens a new group at the end.

The result is deterministic for a given input order. An empty input
yields a single empty group so that callers always have one circuit to
run. Measurement kinds are carried through untouched and never influence
placement.

Every observable must decompose into Pauli factors; otherwise no
partition is returned and the error wraps ErrUnsupportedObservable.
*/
func GroupMeasurements(ms []MeasurementRequest, opts ...GroupOption) (*Partition, error) {
	g := &grouper{relation: Commutes}
	for _, opt := range opts {
		opt(g)
	}

	for i, m := range ms {
		if _, err := m.Observable.PauliWord(); err != nil {
			return nil, fmt.Errorf("measurement %d: %w", i, err)
		}
	}

	p := &Partition{
		Groups: make([]Group, 0, 1),
		Slots:  make([]Slot, len(ms)),
	}

	for i, m := range ms {
		gi, err := g.place(p.Groups, m)
		if err != nil {
			return nil, fmt.Errorf("measurement %d: %w", i, err)
		}

		if gi == len(p.Groups) {
			p.Groups = append(p.Groups, Group{})
		}

		grp := &p.Groups[gi]
		p.Slots[i] = Slot{Group: gi, Position: grp.Len()}
		grp.Measurements = append(grp.Measurements, m)
		grp.Indices = append(grp.Indices, i)
	}

	if len(p.Groups) == 0 {
		p.Groups = append(p.Groups, Group{
			Measurements: []MeasurementRequest{},
			Indices:      []int{},
		})
	}

	errnie.Info("grouped %d measurements into %d groups", len(ms), len(p.Groups))
	return p, nil
}

// place returns the index of the first group m fits into, or len(groups)
// when a new group is needed.
func (g *grouper) place(groups []Group, m MeasurementRequest) (int, error) {
	for gi, grp := range groups {
		fits := true
		for _, member := range grp.Measurements {
			ok, err := g.relation(member.Observable, m.Observable)
			if err != nil {
				return 0, err
			}
			if !ok {
				fits = false
				break
			}
		}
		if fits {
			return gi, nil
		}
	}
	return len(groups), nil
}
