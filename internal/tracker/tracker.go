// internal/tracker/tracker.go
package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kfenwick/purrsuit/internal/device"
	"github.com/kfenwick/purrsuit/internal/geometry"
)

const (
	// historyCapacity bounds the position history; the oldest entry is
	// evicted on insert.
	historyCapacity = 10

	// pollQuantum is how often the background loop wakes to check whether a
	// detection is due. It also bounds cancellation latency.
	pollQuantum = 100 * time.Millisecond
)

// Config tunes the tracker.
type Config struct {
	// Interval is the minimum spacing between real detector invocations.
	Interval time.Duration
	// ConfidenceThreshold is forwarded to detector implementations that
	// support it.
	ConfidenceThreshold float64
}

// Tracker maintains a best-effort estimate of the tracked subject's on-screen
// position: a bounded history of bounding boxes and a derived movement
// vector. It runs an independent background polling loop with its own
// start/stop lifecycle; stopping the scheduler does not stop the tracker.
type Tracker struct {
	frames   device.FrameSource
	detector Detector
	logger   *zap.Logger

	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter
	history []geometry.BoundingBox
	last    *geometry.BoundingBox

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New builds a tracker. It does not start polling; call Start.
func New(frames device.FrameSource, detector Detector, cfg Config, logger *zap.Logger) *Tracker {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	return &Tracker{
		frames:   frames,
		detector: detector,
		logger:   logger,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(cfg.Interval), 1),
	}
}

// SetConfig swaps the detection cadence and threshold. Takes effect on the
// next poll.
func (t *Tracker) SetConfig(cfg Config) error {
	if cfg.Interval <= 0 {
		return errNonPositiveInterval
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return errBadConfidence
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = cfg
	t.limiter = rate.NewLimiter(rate.Every(cfg.Interval), 1)
	return nil
}

// Start launches the background polling loop. Calling Start on a running
// tracker is a no-op.
func (t *Tracker) Start() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	t.running = true
	go t.loop(ctx)
	t.logger.Info("tracker started", zap.Duration("interval", t.interval()))
}

// Stop cancels the polling loop and waits for it to exit.
func (t *Tracker) Stop() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if !t.running {
		return
	}
	t.cancel()
	<-t.done
	t.running = false
	t.logger.Info("tracker stopped")
}

// Running reports whether the polling loop is active.
func (t *Tracker) Running() bool {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	return t.running
}

func (t *Tracker) interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.Interval
}

// loop wakes every pollQuantum and attempts a detection; Detect itself
// enforces the configured cadence.
func (t *Tracker) loop(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(pollQuantum)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Detect(ctx)
		}
	}
}

// Detect runs one detection attempt, subject to the configured minimum
// spacing: a call made sooner than the interval returns the cached last
// detection instead of re-invoking the expensive detector. Detector errors
// and missing frames degrade to the last known position.
func (t *Tracker) Detect(ctx context.Context) *geometry.BoundingBox {
	t.mu.Lock()
	allowed := t.limiter.Allow()
	t.mu.Unlock()
	if !allowed {
		return t.LastDetection()
	}

	frame, err := t.frames.CaptureFrame(ctx)
	if err != nil {
		t.logger.Debug("frame capture failed", zap.Error(err))
		return t.LastDetection()
	}

	box, err := t.detector.Detect(ctx, frame)
	if err != nil {
		t.logger.Debug("detection failed", zap.Error(err))
		return t.LastDetection()
	}
	if box == nil {
		return t.LastDetection()
	}

	t.mu.Lock()
	t.push(*box)
	t.mu.Unlock()
	return box
}

// push appends to the bounded history, evicting the oldest entry beyond
// capacity. Caller holds t.mu.
func (t *Tracker) push(b geometry.BoundingBox) {
	t.history = append(t.history, b)
	if len(t.history) > historyCapacity {
		t.history = t.history[1:]
	}
	t.last = &b
}

// LastDetection returns the cached most recent detection, or nil.
func (t *Tracker) LastDetection() *geometry.BoundingBox {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return nil
	}
	b := *t.last
	return &b
}

// Position returns the most recent detection, if any.
func (t *Tracker) Position() (geometry.BoundingBox, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return geometry.BoundingBox{}, false
	}
	return *t.last, true
}

// Movement returns the unit-normalized movement vector derived from the two
// most recent history entries. It reports false with fewer than two samples
// or when the subject has not moved.
func (t *Tracker) Movement() (geometry.Vector2D, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.history) < 2 {
		return geometry.Vector2D{}, false
	}
	prev := t.history[len(t.history)-2].Center()
	curr := t.history[len(t.history)-1].Center()
	delta := curr.Sub(prev)
	if delta.Mag() < 1e-9 {
		// No significant movement.
		return geometry.Vector2D{}, false
	}
	return delta.Normalize(), true
}
