// internal/pattern/prey.go
package pattern

import (
	"math"
	"math/rand"
	"time"
)

// Prey builds the cat-engagement pattern: one of four prey-like behaviors
// chosen at construction. It is also the fallback every reactive generator
// uses when the tracker has no detection.
func Prey(timeUnit time.Duration, rng *rand.Rand) *Pattern {
	b := NewBuilder(timeUnit)
	switch rng.Intn(4) {
	case 0:
		preyMovement(b, rng)
	case 1:
		stalkingPrey(b, rng)
	case 2:
		hidingPrey(b, rng)
	default:
		fleeingPrey(b, rng)
	}
	return b.Build("kitty")
}

// preyMovement produces small, erratic movements like a mouse.
func preyMovement(b *Builder, rng *rand.Rand) {
	x := 0.3 + rng.Float64()*0.4
	y := 0.3 + rng.Float64()*0.4
	b.MoveTo(x, y, true)
	b.Wait(0.3)

	for i := 0; i < 15; i++ {
		angle := rng.Float64() * 2 * math.Pi
		distance := 0.02 + rng.Float64()*0.06
		x = clampRel(x + distance*math.Cos(angle))
		y = clampRel(y + distance*math.Sin(angle))
		b.MoveTo(x, y, true)
		b.Wait(0.1 + rng.Float64()*0.2)
	}
}

// stalkingPrey creeps slowly, then darts.
func stalkingPrey(b *Builder, rng *rand.Rand) {
	x := 0.2 + rng.Float64()*0.6
	y := 0.2 + rng.Float64()*0.6
	b.MoveTo(x, y, true)

	for seq := 0; seq < 3; seq++ {
		for i := 0; i < 4; i++ {
			angle := rng.Float64() * 2 * math.Pi
			distance := 0.01 + rng.Float64()*0.02
			x = clampRel(x + distance*math.Cos(angle))
			y = clampRel(y + distance*math.Sin(angle))
			b.MoveTo(x, y, true)
			b.Wait(0.5)
		}
		// Dart!
		angle := rng.Float64() * 2 * math.Pi
		distance := 0.2 + rng.Float64()*0.2
		x = clampRel(x + distance*math.Cos(angle))
		y = clampRel(y + distance*math.Sin(angle))
		b.MoveTo(x, y, true)
		b.Wait(0.1)
	}
}

// hidingPrey freezes with tiny jitter, then dashes away.
func hidingPrey(b *Builder, rng *rand.Rand) {
	x := 0.2 + rng.Float64()*0.6
	y := 0.2 + rng.Float64()*0.6
	b.MoveTo(x, y, true)

	for seq := 0; seq < 5; seq++ {
		for i := 0; i < 3; i++ {
			jx := x + (rng.Float64()-0.5)*0.02
			jy := y + (rng.Float64()-0.5)*0.02
			b.MoveTo(jx, jy, true)
			b.Wait(0.2)
		}
		// Dash away!
		angle := rng.Float64() * 2 * math.Pi
		distance := 0.15 + rng.Float64()*0.2
		x = clampRel(x + distance*math.Cos(angle))
		y = clampRel(y + distance*math.Sin(angle))
		b.MoveTo(x, y, true)
		b.Wait(0.2)
	}
}

// fleeingPrey runs in a consistent direction, bouncing off the zone edges.
func fleeingPrey(b *Builder, rng *rand.Rand) {
	x := 0.2 + rng.Float64()*0.6
	y := 0.2 + rng.Float64()*0.6
	b.MoveTo(x, y, true)

	mainAngle := rng.Float64() * 2 * math.Pi
	for i := 0; i < 8; i++ {
		angle := mainAngle + (rng.Float64()-0.5)
		distance := 0.08 + rng.Float64()*0.07
		x += distance * math.Cos(angle)
		y += distance * math.Sin(angle)

		if x < 0.1 || x > 0.9 {
			mainAngle = math.Pi - mainAngle
			x = clampRel(x)
		}
		if y < 0.1 || y > 0.9 {
			mainAngle = -mainAngle
			y = clampRel(y)
		}
		b.MoveTo(x, y, true)
		b.Wait(0.2 + rng.Float64()*0.2)
	}
}
