package qsplit

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestResultSpace(t *testing.T) {
	Convey("Given a result space", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		rs := newResultSpace(10 * time.Millisecond)

		Reset(func() {
			rs.Close()
		})

		Convey("When a value is stored before it is awaited", func() {
			rs.Store("stored-first", 0.5, nil, time.Minute)

			Convey("It should be delivered immediately", func() {
				select {
				case <-ctx.Done():
					t.Fatal("timed out waiting for stored value")
				case r := <-rs.Await("stored-first"):
					So(r.Value, ShouldEqual, 0.5)
					So(r.Error, ShouldBeNil)
				}
			})
		})

		Convey("When a value is awaited before it is stored", func() {
			first := rs.Await("awaited-first")
			second := rs.Await("awaited-first")
			rs.Store("awaited-first", nil, errors.New("device offline"), time.Minute)

			Convey("Every waiter should receive it", func() {
				for _, ch := range []chan Result{first, second} {
					select {
					case <-ctx.Done():
						t.Fatal("timed out waiting for awaited value")
					case r := <-ch:
						So(r.Error, ShouldNotBeNil)
						So(r.Error.Error(), ShouldEqual, "device offline")
					}
				}
			})
		})

		Convey("When a stored value outlives its TTL", func() {
			rs.Store("short-lived", 1, nil, time.Millisecond)
			time.Sleep(50 * time.Millisecond)

			Convey("It should have been cleaned up", func() {
				rs.mu.Lock()
				_, ok := rs.values["short-lived"]
				rs.mu.Unlock()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a value is forgotten", func() {
			rs.Store("forgotten", 1, nil, time.Minute)
			rs.Forget("forgotten")

			Convey("A new waiter should not see it", func() {
				select {
				case <-rs.Await("forgotten"):
					t.Fatal("forgotten value was delivered")
				case <-time.After(20 * time.Millisecond):
				}
			})
		})
	})
}
