package qsplit

import (
	"github.com/theapemachine/errnie"
)

/*
Split partitions the measurements of tape into groups of commuting
observables and returns one sub-tape per group together with the function
that reassembles their raw results.

Sub-tapes share the original operations and carry only their group's
measurements, in group order and with their original kinds. They do not
depend on one another and may be executed in any order or in parallel;
the results must be passed to the returned function indexed by sub-tape
position.

When no split is needed the returned slice holds tape itself and the
function returns its single argument unchanged.
*/
func Split(tape *Tape, opts ...GroupOption) ([]*Tape, RecombineFunc, error) {
	p, err := GroupMeasurements(tape.Measurements, opts...)
	if err != nil {
		return nil, nil, err
	}

	if !p.Split() {
		return []*Tape{tape}, p.RecombineFunc(), nil
	}

	tapes := make([]*Tape, len(p.Groups))
	for gi, g := range p.Groups {
		tapes[gi] = tape.WithMeasurements(g.Measurements)
	}

	errnie.Info("split tape %s into %d tapes", tape.ID, len(tapes))
	return tapes, p.RecombineFunc(), nil
}
