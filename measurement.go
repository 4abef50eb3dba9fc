package qsplit

import "fmt"

// MeasurementKind is the statistic requested for an observable.
type MeasurementKind int

const (
	KindExpval MeasurementKind = iota
	KindVar
	KindSample
)

func (k MeasurementKind) String() string {
	switch k {
	case KindExpval:
		return "expval"
	case KindVar:
		return "var"
	case KindSample:
		return "sample"
	default:
		return fmt.Sprintf("MeasurementKind(%d)", int(k))
	}
}

// ParseMeasurementKind maps "expval", "var" or "sample" onto a MeasurementKind.
func ParseMeasurementKind(s string) (MeasurementKind, error) {
	switch s {
	case "expval":
		return KindExpval, nil
	case "var":
		return KindVar, nil
	case "sample":
		return KindSample, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMeasurementKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k MeasurementKind) MarshalText() ([]byte, error) {
	switch k {
	case KindExpval, KindVar, KindSample:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMeasurementKind, int(k))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *MeasurementKind) UnmarshalText(text []byte) error {
	parsed, err := ParseMeasurementKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MeasurementRequest asks for one statistic of one observable.
type MeasurementRequest struct {
	Kind       MeasurementKind `yaml:"kind" json:"kind"`
	Observable Observable      `yaml:"observable" json:"observable"`
}

// Expval requests the expectation value of o.
func Expval(o Observable) MeasurementRequest {
	return MeasurementRequest{Kind: KindExpval, Observable: o}
}

// Var requests the variance of o.
func Var(o Observable) MeasurementRequest {
	return MeasurementRequest{Kind: KindVar, Observable: o}
}

// Sample requests samples of o.
func Sample(o Observable) MeasurementRequest {
	return MeasurementRequest{Kind: KindSample, Observable: o}
}

func (m MeasurementRequest) String() string {
	return fmt.Sprintf("%s(%s)", m.Kind, m.Observable)
}
