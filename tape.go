package qsplit

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Operation is a gate applied to a circuit. The module never interprets
// operations; it only copies them into sub-tapes.
type Operation struct {
	Name   string    `yaml:"name" json:"name"`
	Wires  []int     `yaml:"wires" json:"wires"`
	Params []float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

func (op Operation) clone() Operation {
	out := Operation{Name: op.Name}
	if op.Wires != nil {
		out.Wires = append([]int(nil), op.Wires...)
	}
	if op.Params != nil {
		out.Params = append([]float64(nil), op.Params...)
	}
	return out
}

/*
Tape is an ordered record of circuit operations followed by the
measurements to take at the end. Parent is set on tapes derived from
another tape and is the zero UUID otherwise.
*/
type Tape struct {
	ID           uuid.UUID            `yaml:"-" json:"id"`
	Parent       uuid.UUID            `yaml:"-" json:"parent"`
	Operations   []Operation          `yaml:"operations" json:"operations"`
	Measurements []MeasurementRequest `yaml:"measurements" json:"measurements"`
}

// NewTape creates a tape with a fresh ID.
func NewTape(ops []Operation, ms []MeasurementRequest) *Tape {
	return &Tape{
		ID:           uuid.New(),
		Operations:   ops,
		Measurements: ms,
	}
}

// WithMeasurements returns a copy of the tape that runs the same
// operations but takes ms instead of the original measurements.
func (t *Tape) WithMeasurements(ms []MeasurementRequest) *Tape {
	ops := make([]Operation, len(t.Operations))
	for i, op := range t.Operations {
		ops[i] = op.clone()
	}

	return &Tape{
		ID:           uuid.New(),
		Parent:       t.ID,
		Operations:   ops,
		Measurements: append([]MeasurementRequest(nil), ms...),
	}
}

// DecodeTape reads a YAML tape description.
//
//	operations:
//	  - name: Hadamard
//	    wires: [0]
//	measurements:
//	  - kind: expval
//	    observable: Z0 @ Z1
func DecodeTape(r io.Reader) (*Tape, error) {
	t := &Tape{}
	if err := yaml.NewDecoder(r).Decode(t); err != nil {
		return nil, fmt.Errorf("decode tape: %w", err)
	}
	t.ID = uuid.New()
	return t, nil
}

// LoadTape reads a YAML tape description from path.
func LoadTape(path string) (*Tape, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tape: %w", err)
	}
	defer f.Close()

	return DecodeTape(f)
}
