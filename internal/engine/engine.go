package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kfenwick/purrsuit/internal/device"
	"github.com/kfenwick/purrsuit/internal/pattern"
	"github.com/kfenwick/purrsuit/internal/reactive"
	"github.com/kfenwick/purrsuit/internal/scheduler"
	"github.com/kfenwick/purrsuit/internal/tracker"
)

// Params configures a new Engine.
type Params struct {
	SafeZone        SafeZone
	EnforceSafeZone bool
	TimeUnit        time.Duration
	VerboseSafety   bool

	// MaxTapFailures is the consecutive-failure run after which the device
	// is considered unreachable and the session aborts.
	MaxTapFailures int

	Tracker  tracker.Config
	Reactive reactive.Config

	// Seed fixes the random source; zero seeds from the clock.
	Seed int64
}

// Engine owns the wiring between the dispatcher, the tracker, the reactive
// generators, and the scheduler. Components never hold each other directly;
// the engine injects narrow capability interfaces and exposes the
// configuration surface consumed by the CLI layer.
type Engine struct {
	logger   *zap.Logger
	actuator device.Actuator

	disp  *Dispatcher
	trk   *tracker.Tracker
	gen   *reactive.Generator
	sched *scheduler.Scheduler

	width, height int

	rng *rand.Rand

	mu             sync.Mutex
	timeUnit       time.Duration
	maxTapFailures int
	tracking       bool
	running        bool
	cancel         context.CancelFunc
	done           chan struct{}
	lastErr        error
}

// New builds and wires the engine. It queries the device resolution once to
// resolve the safe zone; later zone updates reuse the cached resolution.
func New(ctx context.Context, actuator device.Actuator, detector tracker.Detector, p Params, logger *zap.Logger) (*Engine, error) {
	if p.TimeUnit <= 0 {
		return nil, fmt.Errorf("time unit must be positive, got %v", p.TimeUnit)
	}
	if p.MaxTapFailures <= 0 {
		p.MaxTapFailures = 5
	}
	if err := p.Reactive.Validate(); err != nil {
		return nil, err
	}

	width, height, err := actuator.ScreenDimensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("query screen dimensions: %w", err)
	}

	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	disp := NewDispatcher(actuator, p.SafeZone.Resolve(width, height),
		rand.New(rand.NewSource(seed+1)), logger.Named("dispatcher"))
	disp.EnableSafeZone(p.EnforceSafeZone)
	disp.SetVerboseSafety(p.VerboseSafety)

	trk := tracker.New(actuator, detector, p.Tracker, logger.Named("tracker"))
	gen := reactive.New(disp, trk, p.Reactive, p.TimeUnit, rng, logger.Named("reactive"))

	e := &Engine{
		logger:         logger,
		actuator:       actuator,
		disp:           disp,
		trk:            trk,
		gen:            gen,
		width:          width,
		height:         height,
		rng:            rng,
		timeUnit:       p.TimeUnit,
		maxTapFailures: p.MaxTapFailures,
	}
	e.sched = scheduler.New(e, e.catalog, rng, logger.Named("scheduler"))
	return e, nil
}

// Dispatcher exposes the tap choke point, mainly for diagnostics.
func (e *Engine) Dispatcher() *Dispatcher { return e.disp }

// Tracker exposes the tracking subsystem.
func (e *Engine) Tracker() *tracker.Tracker { return e.trk }

// catalog lists the kinds eligible for pattern variation. Reactive kinds
// join only while tracking is enabled.
func (e *Engine) catalog() []pattern.Kind {
	kinds := pattern.AuthoredKinds()
	if e.TrackingEnabled() {
		kinds = append(kinds, pattern.ReactiveKinds()...)
	}
	return kinds
}

// RunPattern implements scheduler.Runner: one full execution of the given
// kind at the given intensity, with the active flag held for its duration.
func (e *Engine) RunPattern(ctx context.Context, k pattern.Kind, intensity float64) error {
	e.disp.StartPattern()
	defer e.disp.StopPattern()

	var err error
	if k.Reactive() {
		err = e.gen.Run(ctx, k, intensity)
	} else {
		var p *pattern.Pattern
		if p, err = pattern.Build(k, e.TimeUnit(), e.rng); err != nil {
			return err
		}
		e.logger.Debug("executing pattern",
			zap.String("pattern", p.Name()), zap.Float64("intensity", intensity))
		err = p.Execute(ctx, e.disp, intensity)
	}
	if err != nil {
		return err
	}

	if n := e.disp.ConsecutiveFailures(); n >= e.maxFailures() {
		return fmt.Errorf("%d consecutive tap failures: %w", n, device.ErrDeviceUnavailable)
	}
	return nil
}

func (e *Engine) maxFailures() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxTapFailures
}

// TimeUnit returns the current Wait-unit duration.
func (e *Engine) TimeUnit() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeUnit
}

// SetTimeUnit changes the duration one Wait unit represents.
func (e *Engine) SetTimeUnit(ms int) error {
	if ms <= 0 {
		return fmt.Errorf("time unit must be positive, got %dms", ms)
	}
	tu := time.Duration(ms) * time.Millisecond
	e.mu.Lock()
	e.timeUnit = tu
	e.mu.Unlock()
	e.gen.SetTimeUnit(tu)
	return nil
}

// SetSafeZone validates fractional bounds and swaps in the new zone,
// resolved against the cached device resolution. Taps in flight observe
// either the old zone or the new one, never a mix.
func (e *Engine) SetSafeZone(minX, maxX, minY, maxY float64) error {
	zone, err := NewSafeZone(minX, maxX, minY, maxY)
	if err != nil {
		return err
	}
	e.disp.SetSafeZone(zone.Resolve(e.width, e.height))
	e.logger.Info("safe zone updated",
		zap.Float64("min_x", minX), zap.Float64("max_x", maxX),
		zap.Float64("min_y", minY), zap.Float64("max_y", maxY))
	return nil
}

// EnableSafeZone toggles clamp enforcement.
func (e *Engine) EnableSafeZone(enabled bool) {
	e.disp.EnableSafeZone(enabled)
}

// SetTrackerConfig updates the tracker polling cadence and confidence
// threshold.
func (e *Engine) SetTrackerConfig(pollInterval time.Duration, confidence float64) error {
	return e.trk.SetConfig(tracker.Config{Interval: pollInterval, ConfidenceThreshold: confidence})
}

// SetReactiveConfig updates the reactive lead and tease distances.
func (e *Engine) SetReactiveConfig(leadPx, teasePx float64) error {
	return e.gen.SetConfig(reactive.Config{LeadDistance: leadPx, TeaseDistance: teasePx})
}

// EnableTracking starts or stops the tracker. Its lifecycle is independent
// of the session loop: stopping a session leaves tracking running.
func (e *Engine) EnableTracking(enabled bool) {
	e.mu.Lock()
	e.tracking = enabled
	e.mu.Unlock()
	if enabled {
		e.trk.Start()
	} else {
		e.trk.Stop()
	}
}

// TrackingEnabled reports whether reactive kinds are in the catalog.
func (e *Engine) TrackingEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracking
}

// StartPattern launches a continuous session. Only one session runs at a
// time.
func (e *Engine) StartPattern(k pattern.Kind, changeInterval time.Duration, intensity float64) error {
	if intensity <= 0 || intensity > 1 {
		return fmt.Errorf("intensity must be in (0,1], got %v", intensity)
	}
	if changeInterval <= 0 {
		return fmt.Errorf("change interval must be positive, got %v", changeInterval)
	}
	if k.Reactive() && !e.TrackingEnabled() {
		return fmt.Errorf("pattern %s requires tracking to be enabled", k)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return fmt.Errorf("a session is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	sess := scheduler.Session{Primary: k, ChangeInterval: changeInterval, Intensity: intensity}
	g.Go(func() error {
		return e.sched.Run(gctx, sess)
	})

	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	e.running = true
	e.lastErr = nil

	go func() {
		err := g.Wait()
		e.mu.Lock()
		e.lastErr = err
		e.running = false
		e.mu.Unlock()
		close(done)
	}()
	return nil
}

// StopPattern cancels the running session and waits for the loop to observe
// the cancellation. It returns the session's terminal error, if any.
func (e *Engine) StopPattern() error {
	e.mu.Lock()
	if e.cancel == nil {
		e.mu.Unlock()
		return nil
	}
	cancel, done := e.cancel, e.done
	e.cancel = nil
	e.mu.Unlock()

	cancel()
	<-done

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Wait blocks until the session ends on its own (device unreachable) or the
// supplied context is cancelled. It does not stop the session on context
// cancellation; callers follow up with StopPattern.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.lastErr
	}
}

// Running reports whether a session loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}
