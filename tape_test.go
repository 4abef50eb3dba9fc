package qsplit

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

const bellTape = `
operations:
  - name: Hadamard
    wires: [0]
  - name: CNOT
    wires: [0, 1]
  - name: RX
    wires: [1]
    params: [0.5]
measurements:
  - kind: expval
    observable: Z0 @ Z1
  - kind: var
    observable: PauliX(0)
  - kind: sample
    observable: Y1
`

func TestDecodeTape(t *testing.T) {
	Convey("Given a YAML tape", t, func() {
		tape, err := DecodeTape(strings.NewReader(bellTape))

		Convey("Operations should decode in order", func() {
			So(err, ShouldBeNil)
			So(tape.Operations, ShouldResemble, []Operation{
				{Name: "Hadamard", Wires: []int{0}},
				{Name: "CNOT", Wires: []int{0, 1}},
				{Name: "RX", Wires: []int{1}, Params: []float64{0.5}},
			})
		})

		Convey("Measurements should decode with kind and observable", func() {
			So(tape.Measurements, ShouldHaveLength, 3)
			So(tape.Measurements[0].String(), ShouldEqual, "expval(PauliZ(0) @ PauliZ(1))")
			So(tape.Measurements[1].String(), ShouldEqual, "var(PauliX(0))")
			So(tape.Measurements[2].String(), ShouldEqual, "sample(PauliY(1))")
		})

		Convey("It should get a fresh ID and no parent", func() {
			So(tape.ID, ShouldNotEqual, uuid.Nil)
			So(tape.Parent, ShouldEqual, uuid.Nil)
		})
	})

	Convey("Given a tape with a malformed observable", t, func() {
		_, err := DecodeTape(strings.NewReader("measurements:\n  - kind: expval\n    observable: Z0 @@ Z1\n"))
		So(err, ShouldNotBeNil)
	})

	Convey("Given a tape file on disk", t, func() {
		path := writeTemp(t.TempDir(), "tape.yaml", bellTape)
		tape, err := LoadTape(path)

		So(err, ShouldBeNil)
		So(tape.Measurements, ShouldHaveLength, 3)

		_, err = LoadTape(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
