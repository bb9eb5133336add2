// internal/pattern/library.go
//
// The authored pattern library. All coordinates are safe-zone relative
// fractions kept inside [0.1, 0.9] so every pattern remains valid under any
// configured safe zone.
package pattern

import (
	"math"
	"math/rand"
	"time"

	"github.com/aquilax/go-perlin"
)

// clampRel keeps a relative coordinate inside the working band.
func clampRel(v float64) float64 {
	return math.Max(0.1, math.Min(0.9, v))
}

// Random taps eight uniformly random in-zone points with varied pauses.
func Random(timeUnit time.Duration, rng *rand.Rand) *Pattern {
	b := NewBuilder(timeUnit)
	const numMoves = 8
	for i := 0; i < numMoves; i++ {
		x := 0.1 + rng.Float64()*0.8
		y := 0.1 + rng.Float64()*0.8
		b.MoveTo(x, y, true)
		b.Wait(0.5 + rng.Float64()*1.5)
	}
	return b.Build("random")
}

// Circular traverses twelve points around the safe-zone center at 40% radius,
// then closes the circle.
func Circular(timeUnit time.Duration) *Pattern {
	b := NewBuilder(timeUnit)
	const (
		numPoints = 12
		centerX   = 0.5
		centerY   = 0.5
		radius    = 0.4
	)
	for i := 0; i < numPoints; i++ {
		angle := 2 * math.Pi * float64(i) / numPoints
		b.MoveTo(centerX+radius*math.Cos(angle), centerY+radius*math.Sin(angle), true)
		b.Wait(0.5)
	}
	b.MoveTo(centerX+radius, centerY, true)
	b.Wait(1)
	return b.Build("circular")
}

// FixedPoints sweeps six perimeter points in sequence and returns to center.
func FixedPoints(timeUnit time.Duration) *Pattern {
	b := NewBuilder(timeUnit)
	points := [][2]float64{
		{0.2, 0.3}, // top-left
		{0.5, 0.2}, // top-center
		{0.8, 0.3}, // top-right
		{0.8, 0.7}, // bottom-right
		{0.5, 0.8}, // bottom-center
		{0.2, 0.7}, // bottom-left
	}
	for _, p := range points {
		b.MoveTo(p[0], p[1], true)
		b.Wait(1)
	}
	b.MoveTo(0.5, 0.5, true)
	b.Wait(1.5)
	return b.Build("fixed-points")
}

// Laser imitates a hand-held laser pointer: mostly smooth wandering with
// occasional quick darts. The wander direction is driven by 1D Perlin noise so
// consecutive steps stay correlated instead of jittering at random.
func Laser(timeUnit time.Duration, rng *rand.Rand) *Pattern {
	b := NewBuilder(timeUnit)

	noise := perlin.NewPerlin(2, 2, 3, rng.Int63())

	lastX := 0.2 + rng.Float64()*0.6
	lastY := 0.2 + rng.Float64()*0.6
	b.MoveTo(lastX, lastY, true)
	b.Wait(0.5)

	const numMoves = 10
	for i := 0; i < numMoves; i++ {
		if rng.Float64() < 0.3 {
			// Quick dart anywhere in the zone.
			lastX = 0.1 + rng.Float64()*0.8
			lastY = 0.1 + rng.Float64()*0.8
			b.MoveTo(lastX, lastY, true)
			b.Wait(0.2)
			continue
		}
		// Smooth tracking step; heading drifts with the noise field.
		angle := noise.Noise1D(float64(i)*0.35) * 2 * math.Pi
		distance := 0.1 + rng.Float64()*0.2
		lastX = clampRel(lastX + distance*math.Cos(angle))
		lastY = clampRel(lastY + distance*math.Sin(angle))
		b.MoveTo(lastX, lastY, true)
		b.Wait(0.5 + rng.Float64()*0.5)
	}
	return b.Build("laser")
}
