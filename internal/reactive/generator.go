// internal/reactive/generator.go
package reactive

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kfenwick/purrsuit/internal/geometry"
	"github.com/kfenwick/purrsuit/internal/pattern"
)

// TargetSource provides the tracked subject's state. The tracker implements
// it; tests inject fakes.
type TargetSource interface {
	// Position returns the most recent detection, if any.
	Position() (geometry.BoundingBox, bool)
	// Movement returns the unit movement vector, if one can be derived.
	Movement() (geometry.Vector2D, bool)
}

// Config tunes the reactive behaviors.
type Config struct {
	// LeadDistance is how far ahead of the subject the following pattern
	// aims, in pixels.
	LeadDistance float64
	// TeaseDistance is the radius the teasing decoy keeps from the subject,
	// in pixels.
	TeaseDistance float64
}

// Validate rejects non-positive distances.
func (c Config) Validate() error {
	if c.LeadDistance <= 0 {
		return fmt.Errorf("lead distance must be positive, got %v", c.LeadDistance)
	}
	if c.TeaseDistance <= 0 {
		return fmt.Errorf("tease distance must be positive, got %v", c.TeaseDistance)
	}
	return nil
}

// Generator produces tap targets from live tracker state. When the tracker
// has no detection it never taps blindly at an unknown target: it falls back
// to the prey pattern, which with an identical seed yields an identical tap
// sequence to running that pattern directly.
type Generator struct {
	sink   pattern.TapSink
	target TargetSource
	logger *zap.Logger
	rng    *rand.Rand

	mu       sync.Mutex
	cfg      Config
	timeUnit time.Duration
}

// New wires a generator to its tap sink and target source. The sink is the
// narrow dispatcher capability, injected here so the generator never holds
// the dispatcher itself.
func New(sink pattern.TapSink, target TargetSource, cfg Config, timeUnit time.Duration, rng *rand.Rand, logger *zap.Logger) *Generator {
	return &Generator{
		sink:     sink,
		target:   target,
		cfg:      cfg,
		timeUnit: timeUnit,
		rng:      rng,
		logger:   logger,
	}
}

// SetConfig swaps the reactive distances.
func (g *Generator) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	g.cfg = cfg
	g.mu.Unlock()
	return nil
}

// SetTimeUnit updates the Wait-unit duration used by the fallback pattern.
func (g *Generator) SetTimeUnit(tu time.Duration) {
	g.mu.Lock()
	g.timeUnit = tu
	g.mu.Unlock()
}

func (g *Generator) config() Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// Run executes one full pass of the given reactive kind.
func (g *Generator) Run(ctx context.Context, k pattern.Kind, intensity float64) error {
	switch k {
	case pattern.KindFollowing:
		return g.Following(ctx, intensity)
	case pattern.KindTeasing:
		return g.Teasing(ctx, intensity)
	case pattern.KindEnrichment:
		return g.Enrichment(ctx, intensity)
	}
	return fmt.Errorf("pattern %s is not reactive", k)
}

// fallback runs the prey pattern when no detection is available.
func (g *Generator) fallback(ctx context.Context, intensity float64) error {
	g.logger.Debug("no detection, using fallback pattern")
	g.mu.Lock()
	tu := g.timeUnit
	g.mu.Unlock()
	return pattern.Prey(tu, g.rng).Execute(ctx, g.sink, intensity)
}

// Following aims just ahead of the subject's path: a lead point is projected
// along the movement vector at the configured lead distance, and taps scatter
// around it within a radius scaling with intensity. The lead point is
// re-derived every third sub-tap so it keeps tracking a moving subject.
func (g *Generator) Following(ctx context.Context, intensity float64) error {
	pos, ok := g.target.Position()
	if !ok {
		return g.fallback(ctx, intensity)
	}
	cfg := g.config()

	lead := g.leadPoint(pos.Center(), cfg.LeadDistance)
	numMoves := maxInt(6, int(12*intensity))
	delay := secondsToDuration(math.Max(0.1, 0.5*(1.0-intensity)))

	for i := 0; i < numMoves; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		variation := 50 * intensity
		tap := lead.Add(geometry.Vector2D{
			X: g.uniform(-variation, variation),
			Y: g.uniform(-variation, variation),
		})
		_ = g.sink.ExecuteTap(ctx, int(tap.X), int(tap.Y))

		if err := g.sink.SleepWithSafety(ctx, delay); err != nil {
			return err
		}

		if i%3 == 0 {
			if pos, ok = g.target.Position(); ok {
				if vec, moving := g.target.Movement(); moving {
					lead = pos.Center().Add(vec.Mul(cfg.LeadDistance))
				}
			}
		}
	}
	return nil
}

// leadPoint projects ahead of the subject along its movement vector, or picks
// a point near the subject when no vector is available.
func (g *Generator) leadPoint(center geometry.Vector2D, leadDistance float64) geometry.Vector2D {
	if vec, ok := g.target.Movement(); ok {
		return center.Add(vec.Mul(leadDistance))
	}
	return center.Add(geometry.Vector2D{
		X: g.uniform(-100, 100),
		Y: g.uniform(-100, 100),
	})
}

// Teasing keeps a decoy point outside the tease distance from the subject.
// Each iteration re-reads the subject position: if the subject has closed to
// within tease distance the decoy retreats directly away along the
// subject-to-decoy vector, landing strictly beyond the tease distance;
// otherwise it drifts by a small random offset.
func (g *Generator) Teasing(ctx context.Context, intensity float64) error {
	pos, ok := g.target.Position()
	if !ok {
		return g.fallback(ctx, intensity)
	}
	cfg := g.config()

	numMoves := maxInt(8, int(15*intensity))
	delay := secondsToDuration(math.Max(0.1, 0.3*(1.0-intensity)))

	decoy := pos.Center().Polar(g.uniform(0, 2*math.Pi), cfg.TeaseDistance)

	for i := 0; i < numMoves; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		_ = g.sink.ExecuteTap(ctx, int(decoy.X), int(decoy.Y))

		if cur, ok := g.target.Position(); ok {
			decoy = g.nextDecoy(decoy, cur.Center(), cfg.TeaseDistance, intensity)
		}

		if err := g.sink.SleepWithSafety(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// nextDecoy computes the decoy's next position given the subject's current
// center. The 1.1 factor on retreat guarantees the new decoy ends up strictly
// beyond the tease distance even after integer truncation of the tap point.
func (g *Generator) nextDecoy(decoy, subject geometry.Vector2D, teaseDistance, intensity float64) geometry.Vector2D {
	away := decoy.Sub(subject)
	if away.Mag() < teaseDistance {
		dir := away.Normalize()
		if dir.Mag() < 1e-9 {
			// Subject is exactly on the decoy; retreat along a fixed axis.
			dir = geometry.Vector2D{X: 1, Y: 0}
		}
		return subject.Add(dir.Mul(teaseDistance * 1.1))
	}
	variation := 30 * intensity
	return decoy.Add(geometry.Vector2D{
		X: g.uniform(-variation, variation),
		Y: g.uniform(-variation, variation),
	})
}

// Enrichment samples points around the subject at a random angle and a
// distance in [50, 200+100*intensity] pixels. The 50px floor keeps the laser
// from taunting directly on top of the subject. Roughly 30% of steps insert a
// longer pause to entice.
func (g *Generator) Enrichment(ctx context.Context, intensity float64) error {
	pos, ok := g.target.Position()
	if !ok {
		return g.fallback(ctx, intensity)
	}

	center := pos.Center()
	numMoves := maxInt(10, int(20*intensity))

	for i := 0; i < numMoves; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		angle := g.uniform(0, 2*math.Pi)
		distance := g.uniform(minEnrichmentDistance, 200+100*intensity)
		tap := center.Polar(angle, distance)
		x, y := int(math.Round(tap.X)), int(math.Round(tap.Y))
		// Rounding must not pull the tap inside the floor.
		if math.Hypot(float64(x)-center.X, float64(y)-center.Y) < minEnrichmentDistance {
			tap = center.Polar(angle, minEnrichmentDistance+1)
			x, y = int(math.Round(tap.X)), int(math.Round(tap.Y))
		}
		_ = g.sink.ExecuteTap(ctx, x, y)

		var delay float64
		if g.uniform(0, 1) < 0.3 {
			// Occasional pause to entice.
			delay = math.Max(0.3, 0.8*(1.0-intensity))
		} else {
			delay = math.Max(0.1, 0.4*(1.0-intensity))
		}
		if err := g.sink.SleepWithSafety(ctx, secondsToDuration(delay)); err != nil {
			return err
		}

		if i%3 == 0 {
			if pos, ok = g.target.Position(); ok {
				center = pos.Center()
			}
		}
	}
	return nil
}

// minEnrichmentDistance is the closest an enrichment tap may land to the
// subject center.
const minEnrichmentDistance = 50.0

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
