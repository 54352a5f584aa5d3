// Package lock provides the exclusive per-train lock held around a booking's
// capacity check and commit.
package lock

import (
	"context"
	"errors"
)

var ErrLockTimeout = errors.New("timed out waiting for train lock")

// Locker serializes bookings per train. Bookings on different trains never contend.
type Locker interface {
	// Acquire blocks until the train is held or the wait expires. The returned release
	// func must be called exactly once on every exit path.
	Acquire(ctx context.Context, trainID int) (release func(), err error)
}
