// Filename: internal/tracker/tracker_test.go
package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/kfenwick/purrsuit/internal/geometry"
)

// =============================================================================
// Test Infrastructure
// =============================================================================

// fakeFrames returns a canned frame, or an error when scripted to fail.
type fakeFrames struct {
	mu       sync.Mutex
	captures int
	err      error
}

func (f *fakeFrames) CaptureFrame(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures++
	if f.err != nil {
		return nil, f.err
	}
	return []byte{0x89, 0x50, 0x4e, 0x47}, nil
}

func (f *fakeFrames) captureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.captures
}

// scriptedDetector returns its queued boxes in order, then nil.
type scriptedDetector struct {
	mu    sync.Mutex
	boxes []*geometry.BoundingBox
	err   error
	calls int
}

func (d *scriptedDetector) Detect(context.Context, []byte) (*geometry.BoundingBox, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	if len(d.boxes) == 0 {
		return nil, nil
	}
	box := d.boxes[0]
	d.boxes = d.boxes[1:]
	return box, nil
}

func box(x, y int) *geometry.BoundingBox {
	return &geometry.BoundingBox{X: x, Y: y, W: 20, H: 20}
}

func newTestTracker(frames *fakeFrames, det *scriptedDetector, interval time.Duration) *Tracker {
	return New(frames, det, Config{Interval: interval, ConfidenceThreshold: 0.5}, zap.NewNop())
}

// =============================================================================
// Detection and Caching
// =============================================================================

func TestDetectUpdatesPosition(t *testing.T) {
	t.Parallel()

	trk := newTestTracker(&fakeFrames{}, &scriptedDetector{boxes: []*geometry.BoundingBox{box(100, 200)}}, time.Millisecond)

	got := trk.Detect(context.Background())
	require.NotNil(t, got)
	assert.Equal(t, 100, got.X)

	pos, ok := trk.Position()
	require.True(t, ok)
	assert.Equal(t, *got, pos)
}

func TestDetectHonorsMinimumSpacing(t *testing.T) {
	t.Parallel()

	frames := &fakeFrames{}
	det := &scriptedDetector{boxes: []*geometry.BoundingBox{box(100, 200), box(300, 400)}}
	trk := newTestTracker(frames, det, time.Hour)

	first := trk.Detect(context.Background())
	require.NotNil(t, first)

	// Well inside the interval: the cached detection comes back and no new
	// frame is captured.
	second := trk.Detect(context.Background())
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
	assert.Equal(t, 1, frames.captureCount())
}

func TestDetectDegradesToLastKnownPosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		frames *fakeFrames
		det    *scriptedDetector
	}{
		{name: "capture failure", frames: &fakeFrames{err: errors.New("device gone")}, det: &scriptedDetector{}},
		{name: "detector failure", frames: &fakeFrames{}, det: &scriptedDetector{err: errors.New("model crashed")}},
		{name: "no detection", frames: &fakeFrames{}, det: &scriptedDetector{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			trk := newTestTracker(tc.frames, tc.det, time.Millisecond)

			// No prior detection: degraded result is nil, not an error.
			assert.Nil(t, trk.Detect(context.Background()))
			_, ok := trk.Position()
			assert.False(t, ok)
		})
	}
}

func TestDetectKeepsCacheThroughFailures(t *testing.T) {
	t.Parallel()

	frames := &fakeFrames{}
	det := &scriptedDetector{boxes: []*geometry.BoundingBox{box(100, 200)}}
	trk := newTestTracker(frames, det, time.Nanosecond)

	require.NotNil(t, trk.Detect(context.Background()))

	// Subsequent detections find nothing; the last good position survives.
	time.Sleep(time.Millisecond)
	got := trk.Detect(context.Background())
	require.NotNil(t, got)
	assert.Equal(t, 100, got.X)
}

// =============================================================================
// History and Movement
// =============================================================================

func TestMovementVectorIsUnitNormalized(t *testing.T) {
	t.Parallel()

	trk := newTestTracker(&fakeFrames{}, &scriptedDetector{}, time.Millisecond)
	trk.mu.Lock()
	trk.push(geometry.BoundingBox{X: 10, Y: 10, W: 0, H: 0})
	trk.push(geometry.BoundingBox{X: 13, Y: 14, W: 0, H: 0})
	trk.mu.Unlock()

	vec, ok := trk.Movement()
	require.True(t, ok)
	assert.InDelta(t, 0.6, vec.X, 1e-9)
	assert.InDelta(t, 0.8, vec.Y, 1e-9)
	assert.InDelta(t, 1.0, vec.Mag(), 1e-9)
}

func TestMovementNeedsTwoSamples(t *testing.T) {
	t.Parallel()

	trk := newTestTracker(&fakeFrames{}, &scriptedDetector{}, time.Millisecond)
	_, ok := trk.Movement()
	assert.False(t, ok)

	trk.mu.Lock()
	trk.push(geometry.BoundingBox{X: 10, Y: 10})
	trk.mu.Unlock()
	_, ok = trk.Movement()
	assert.False(t, ok)
}

func TestMovementOfStationarySubject(t *testing.T) {
	t.Parallel()

	trk := newTestTracker(&fakeFrames{}, &scriptedDetector{}, time.Millisecond)
	trk.mu.Lock()
	trk.push(geometry.BoundingBox{X: 10, Y: 10})
	trk.push(geometry.BoundingBox{X: 10, Y: 10})
	trk.mu.Unlock()

	_, ok := trk.Movement()
	assert.False(t, ok, "no movement vector for a stationary subject")
}

func TestHistoryEvictsOldestBeyondCapacity(t *testing.T) {
	t.Parallel()

	trk := newTestTracker(&fakeFrames{}, &scriptedDetector{}, time.Millisecond)
	trk.mu.Lock()
	for i := 0; i < historyCapacity+5; i++ {
		trk.push(geometry.BoundingBox{X: i, Y: i})
	}
	historyLen := len(trk.history)
	oldest := trk.history[0].X
	trk.mu.Unlock()

	assert.Equal(t, historyCapacity, historyLen)
	assert.Equal(t, 5, oldest, "the first five samples were evicted")

	pos, ok := trk.Position()
	require.True(t, ok)
	assert.Equal(t, historyCapacity+4, pos.X)
}

// =============================================================================
// Configuration and Lifecycle
// =============================================================================

func TestSetConfigValidation(t *testing.T) {
	t.Parallel()

	trk := newTestTracker(&fakeFrames{}, &scriptedDetector{}, time.Millisecond)

	assert.ErrorIs(t, trk.SetConfig(Config{Interval: 0, ConfidenceThreshold: 0.5}), errNonPositiveInterval)
	assert.ErrorIs(t, trk.SetConfig(Config{Interval: time.Second, ConfidenceThreshold: 1.5}), errBadConfidence)
	assert.NoError(t, trk.SetConfig(Config{Interval: time.Second, ConfidenceThreshold: 0.9}))
}

func TestStartStopLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	frames := &fakeFrames{}
	det := &scriptedDetector{boxes: []*geometry.BoundingBox{box(50, 50)}}
	trk := newTestTracker(frames, det, time.Millisecond)

	assert.False(t, trk.Running())
	trk.Start()
	assert.True(t, trk.Running())

	// Start on a running tracker is a no-op.
	trk.Start()

	// Give the loop a few quanta to poll.
	time.Sleep(250 * time.Millisecond)

	trk.Stop()
	assert.False(t, trk.Running())

	// Stop on a stopped tracker is a no-op.
	trk.Stop()

	assert.Greater(t, frames.captureCount(), 0, "loop performed at least one capture")
}
