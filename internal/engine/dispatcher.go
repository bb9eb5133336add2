// internal/engine/dispatcher.go
package engine

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kfenwick/purrsuit/internal/device"
	"github.com/kfenwick/purrsuit/internal/geometry"
)

const (
	// safetyThreshold is the hard policy: the laser must never sit still for
	// longer than this between taps.
	safetyThreshold = time.Second

	// maxQuiet is the longest slice SleepWithSafety allows before it injects
	// a safety tap, keeping the observed silent interval under the threshold.
	maxQuiet = 800 * time.Millisecond
)

// Dispatcher is the single choke point through which every tap reaches the
// device. It enforces the safe zone, maintains the last-tap timestamp the
// safety timer reads, and slices long waits so the anti-stall guarantee holds
// even while a pattern is "paused".
type Dispatcher struct {
	actuator device.Actuator
	logger   *zap.Logger

	zone    atomic.Pointer[SafeZone]
	enforce atomic.Bool

	// active is a logging-verbosity switch, not a correctness gate: while a
	// pattern is running, routine safety taps are not worth a log line.
	active  atomic.Bool
	verbose bool

	// lastTap is the process-wide timestamp (UnixNano) of the most recent
	// dispatched tap. It is the only high-frequency cross-task write.
	lastTap atomic.Int64

	// consecutiveFailures counts tap dispatch failures since the last
	// success; the session loop uses it to detect an unreachable device.
	consecutiveFailures atomic.Int32

	mu  sync.Mutex
	rng *rand.Rand

	// Injection points for deterministic tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDispatcher wires a dispatcher to the actuator. The zone must already be
// resolved against the device resolution.
func NewDispatcher(actuator device.Actuator, zone SafeZone, rng *rand.Rand, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		actuator: actuator,
		logger:   logger,
		rng:      rng,
		now:      time.Now,
		sleep:    sleepContext,
	}
	d.zone.Store(&zone)
	d.enforce.Store(true)
	d.lastTap.Store(d.now().UnixNano())
	return d
}

// SetSafeZone atomically swaps in a new zone value.
func (d *Dispatcher) SetSafeZone(zone SafeZone) {
	d.zone.Store(&zone)
}

// SafeZone returns the current zone value.
func (d *Dispatcher) SafeZone() SafeZone {
	return *d.zone.Load()
}

// EnableSafeZone toggles clamp enforcement.
func (d *Dispatcher) EnableSafeZone(enabled bool) {
	d.enforce.Store(enabled)
}

// SetVerboseSafety controls whether routine safety movements are logged while
// a pattern is active.
func (d *Dispatcher) SetVerboseSafety(v bool) { d.verbose = v }

// Bounds implements pattern.TapSink.
func (d *Dispatcher) Bounds() geometry.Rect {
	return d.zone.Load().Rect
}

// ExecuteTap clamps the requested point to the safe zone (when enforcement is
// on) and forwards it to the device. The last-tap timestamp is updated
// unconditionally, so even a failed dispatch resets the safety clock rather
// than triggering an immediate retry that could hammer a dead device.
func (d *Dispatcher) ExecuteTap(ctx context.Context, x, y int) error {
	if d.enforce.Load() {
		cx, cy := d.Bounds().Clamp(x, y)
		if (cx != x || cy != y) && d.verbose {
			d.logger.Debug("tap constrained to safe zone",
				zap.Int("x", x), zap.Int("y", y),
				zap.Int("clamped_x", cx), zap.Int("clamped_y", cy))
		}
		x, y = cx, cy
	}

	err := d.actuator.Tap(ctx, x, y)
	d.lastTap.Store(d.now().UnixNano())

	if err != nil {
		d.consecutiveFailures.Add(1)
		d.logger.Warn("tap dispatch failed", zap.Int("x", x), zap.Int("y", y), zap.Error(err))
		return err
	}
	d.consecutiveFailures.Store(0)
	d.logger.Debug("tap", zap.Int("x", x), zap.Int("y", y))
	return nil
}

// SafetyDue reports whether the anti-stall threshold has been exceeded since
// the last dispatched tap.
func (d *Dispatcher) SafetyDue() bool {
	last := time.Unix(0, d.lastTap.Load())
	return d.now().Sub(last) > safetyThreshold
}

// SinceLastTap returns the elapsed time since the last dispatched tap.
func (d *Dispatcher) SinceLastTap() time.Duration {
	return d.now().Sub(time.Unix(0, d.lastTap.Load()))
}

// ConsecutiveFailures reports the current run of failed tap dispatches.
func (d *Dispatcher) ConsecutiveFailures() int {
	return int(d.consecutiveFailures.Load())
}

// StartPattern marks a pattern as running, suppressing safety-movement log
// noise.
func (d *Dispatcher) StartPattern() { d.active.Store(true) }

// StopPattern marks the pattern as finished.
func (d *Dispatcher) StopPattern() { d.active.Store(false) }

// PatternActive reports whether a pattern is currently marked running.
func (d *Dispatcher) PatternActive() bool { return d.active.Load() }

// MakeSafetyMovement dispatches a tap at a uniformly random point inside the
// safe zone. It logs only when verbose logging is on or no pattern is active,
// so intentional patterns are not drowned out by safety chatter.
func (d *Dispatcher) MakeSafetyMovement(ctx context.Context) {
	if d.verbose || !d.active.Load() {
		d.logger.Info("safety movement to prevent static pointing")
	}
	x, y := d.randomPoint()
	_ = d.ExecuteTap(ctx, x, y)
}

// randomPoint picks a uniform point inside the safe-zone pixel rectangle.
func (d *Dispatcher) randomPoint() (int, int) {
	r := d.Bounds()
	d.mu.Lock()
	defer d.mu.Unlock()
	x := r.MinX + d.rng.Intn(r.Width()+1)
	y := r.MinY + d.rng.Intn(r.Height()+1)
	return x, y
}

// SleepWithSafety pauses for dur while honoring the anti-stall policy: any
// wait longer than maxQuiet is broken into slices with a small in-zone safety
// tap between them. Cancellation is observed within one slice.
func (d *Dispatcher) SleepWithSafety(ctx context.Context, dur time.Duration) error {
	for dur > maxQuiet {
		if err := d.sleep(ctx, maxQuiet); err != nil {
			return err
		}
		d.MakeSafetyMovement(ctx)
		dur -= maxQuiet
	}
	if dur > 0 {
		return d.sleep(ctx, dur)
	}
	return nil
}

// sleepContext pauses for d, respecting context cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
