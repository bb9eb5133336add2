// internal/pattern/command.go
package pattern

import (
	"context"
	"time"

	"github.com/kfenwick/purrsuit/internal/geometry"
)

// Op identifies the kind of a pattern command. The set is closed: execution
// switches over it exhaustively.
type Op uint8

const (
	// OpMove taps a point, either absolute device pixels or safe-zone
	// relative fractions.
	OpMove Op = iota
	// OpWait pauses for a number of abstract time units.
	OpWait
)

// Command is a single step in a pattern sequence.
type Command struct {
	Op Op

	// Move fields. When Relative is set, X and Y are fractions of the safe
	// zone scaled by intensity at execution time; otherwise they are raw
	// device pixels.
	X, Y     float64
	Relative bool

	// Wait field: number of time units to pause.
	Units float64
}

// TapSink is the narrow capability surface patterns and reactive generators
// execute against. The dispatcher implements it; generators receive it
// injected at construction rather than holding the full dispatcher.
type TapSink interface {
	// ExecuteTap dispatches a tap, applying safe-zone clamping.
	ExecuteTap(ctx context.Context, x, y int) error

	// Bounds returns the current safe-zone pixel rectangle.
	Bounds() geometry.Rect

	// SleepWithSafety pauses for d, breaking long pauses into slices with
	// interleaved safety taps so the device never goes quiet for too long.
	SleepWithSafety(ctx context.Context, d time.Duration) error
}
