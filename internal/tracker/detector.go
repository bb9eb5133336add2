// internal/tracker/detector.go
package tracker

import (
	"context"

	"github.com/kfenwick/purrsuit/internal/geometry"
)

// Detector locates the tracked subject in a captured frame. Implementations
// are opaque to the engine: vision models, heuristics, and test fakes all
// satisfy the same contract. A nil box with a nil error means "no detection",
// which the tracker treats as a routine outcome, not a failure.
type Detector interface {
	Detect(ctx context.Context, frame []byte) (*geometry.BoundingBox, error)
}

// NullDetector never detects anything. It keeps the tracker wiring intact
// when no vision backend is configured; reactive patterns then always use
// their non-reactive fallback.
type NullDetector struct{}

func (NullDetector) Detect(context.Context, []byte) (*geometry.BoundingBox, error) {
	return nil, nil
}
