package qsplit

import (
	"fmt"
	"reflect"
)

// RecombineFunc maps per-group raw results, in group order, back onto the
// original measurement order.
type RecombineFunc func(results []any) (any, error)

/*
Recombine is the typed form of Partition.Recombine. results[g][p] is the
value of the p-th measurement of group g; the returned slice is in
original measurement order.

With a single group the bundle is returned unchanged.
*/
func Recombine[T any](p *Partition, results [][]T) ([]T, error) {
	if len(results) != len(p.Groups) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrMismatchedResultCount, len(results), len(p.Groups))
	}
	if !p.Split() {
		return results[0], nil
	}

	for gi, g := range p.Groups {
		if len(results[gi]) != g.Len() {
			return nil, fmt.Errorf("%w: group %d has %d values for %d measurements", ErrMalformedResult, gi, len(results[gi]), g.Len())
		}
	}

	out := make([]T, len(p.Slots))
	for i, s := range p.Slots {
		out[i] = results[s.Group][s.Position]
	}
	return out, nil
}

/*
Recombine reorders raw per-group results of any shape. Each bundle must
be a slice or array with one entry per measurement of its group; a group
of one measurement reports its bare value, which is taken as-is.

When nothing was split the single bundle is passed through as-is, so
callers see exactly what one unsplit execution would have returned.
*/
func (p *Partition) Recombine(results []any) (any, error) {
	if len(results) != len(p.Groups) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrMismatchedResultCount, len(results), len(p.Groups))
	}
	if !p.Split() {
		return results[0], nil
	}

	values := make([][]any, len(results))
	for gi, r := range results {
		vs, err := unpack(r, p.Groups[gi].Len())
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", gi, err)
		}
		values[gi] = vs
	}

	return Recombine(p, values)
}

// RecombineFunc binds the partition into a RecombineFunc.
func (p *Partition) RecombineFunc() RecombineFunc {
	return p.Recombine
}

// unpack flattens one group bundle into exactly n values. The bundle of a
// single-measurement group is that measurement's value whatever its shape.
func unpack(r any, n int) ([]any, error) {
	if n == 1 {
		return []any{r}, nil
	}

	if vs, ok := r.([]any); ok {
		if len(vs) != n {
			return nil, fmt.Errorf("%w: %d values for %d measurements", ErrMalformedResult, len(vs), n)
		}
		return vs, nil
	}

	v := reflect.ValueOf(r)
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return nil, fmt.Errorf("%w: scalar %T for %d measurements", ErrMalformedResult, r, n)
	}
	if v.Len() != n {
		return nil, fmt.Errorf("%w: %d values for %d measurements", ErrMalformedResult, v.Len(), n)
	}

	out := make([]any, n)
	for i := range n {
		out[i] = v.Index(i).Interface()
	}
	return out, nil
}
