// internal/engine/safezone.go
package engine

import (
	"fmt"

	"github.com/kfenwick/purrsuit/internal/geometry"
)

// SafeZone bounds taps to a rectangle of the screen. The fractional bounds
// are the configured values; the pixel rectangle is derived from a device
// resolution via Resolve. SafeZone is an immutable value: configuration
// changes swap in a whole new zone so in-flight pattern execution never
// observes a torn read.
type SafeZone struct {
	MinX, MaxX float64
	MinY, MaxY float64

	// Rect is the resolved pixel rectangle. Zero until Resolve is called.
	Rect geometry.Rect
}

// NewSafeZone validates fractional bounds: each in [0,1] and min < max on
// both axes.
func NewSafeZone(minX, maxX, minY, maxY float64) (SafeZone, error) {
	for _, v := range []float64{minX, maxX, minY, maxY} {
		if v < 0 || v > 1 {
			return SafeZone{}, fmt.Errorf("safe zone bound %v out of range [0,1]", v)
		}
	}
	if minX >= maxX {
		return SafeZone{}, fmt.Errorf("safe zone min_x %v must be less than max_x %v", minX, maxX)
	}
	if minY >= maxY {
		return SafeZone{}, fmt.Errorf("safe zone min_y %v must be less than max_y %v", minY, maxY)
	}
	return SafeZone{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY}, nil
}

// Resolve returns a copy of the zone with its pixel rectangle recomputed for
// the given device resolution.
func (z SafeZone) Resolve(width, height int) SafeZone {
	z.Rect = geometry.Rect{
		MinX: int(z.MinX * float64(width)),
		MaxX: int(z.MaxX * float64(width)),
		MinY: int(z.MinY * float64(height)),
		MaxY: int(z.MaxY * float64(height)),
	}
	return z
}
