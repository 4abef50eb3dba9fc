package qsplit

import (
	"context"
	"fmt"
)

/*
Device executes a tape and returns its raw result: a scalar for a tape
with one measurement, otherwise one value per measurement in tape order.
Devices live outside this module; the pool only schedules them.
*/
type Device interface {
	Execute(ctx context.Context, tape *Tape) (any, error)
}

// DeviceFunc adapts a function to the Device interface.
type DeviceFunc func(ctx context.Context, tape *Tape) (any, error)

func (f DeviceFunc) Execute(ctx context.Context, tape *Tape) (any, error) {
	return f(ctx, tape)
}

// deviceName names the circuit breaker that guards a device.
func deviceName(d Device) string {
	if n, ok := d.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", d)
}
