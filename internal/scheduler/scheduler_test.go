// Filename: internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kfenwick/purrsuit/internal/device"
	"github.com/kfenwick/purrsuit/internal/pattern"
)

// =============================================================================
// Test Infrastructure
// =============================================================================

// fakeRunner records the kinds it was asked to run and can be scripted to
// fail or to stop the session after a number of runs.
type fakeRunner struct {
	mu        sync.Mutex
	runs      []pattern.Kind
	errs      map[int]error // 1-based run number to error
	stopAfter int
	cancel    context.CancelFunc
}

func (r *fakeRunner) RunPattern(ctx context.Context, k pattern.Kind, _ float64) error {
	r.mu.Lock()
	r.runs = append(r.runs, k)
	n := len(r.runs)
	err := r.errs[n]
	stop := r.stopAfter > 0 && n >= r.stopAfter
	r.mu.Unlock()

	if stop && r.cancel != nil {
		r.cancel()
	}
	return err
}

func (r *fakeRunner) recorded() []pattern.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pattern.Kind, len(r.runs))
	copy(out, r.runs)
	return out
}

func fullCatalog() []pattern.Kind { return pattern.AuthoredKinds() }

func newTestScheduler(r Runner, seed int64) *Scheduler {
	s := New(r, fullCatalog, rand.New(rand.NewSource(seed)), zap.NewNop())
	// Collapse real sleeping so session tests run instantly.
	s.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return s
}

// =============================================================================
// Session Loop
// =============================================================================

func TestRunStopsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{stopAfter: 3, cancel: cancel}
	s := newTestScheduler(runner, 12345)

	err := s.Run(ctx, Session{Primary: pattern.KindPrey, ChangeInterval: time.Hour, Intensity: 0.5})
	assert.NoError(t, err, "caller-driven stop is a normal outcome")
	assert.Len(t, runner.recorded(), 3)
}

func TestRunKeepsPrimaryBeforeChangeInterval(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{stopAfter: 5, cancel: cancel}
	s := newTestScheduler(runner, 12345)

	// Change interval far in the future: every run uses the primary.
	require.NoError(t, s.Run(ctx, Session{Primary: pattern.KindCircular, ChangeInterval: time.Hour, Intensity: 0.5}))
	for _, k := range runner.recorded() {
		assert.Equal(t, pattern.KindCircular, k)
	}
}

func TestRunVariesPatternAfterInterval(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{stopAfter: 50, cancel: cancel}
	s := newTestScheduler(runner, 4)

	// A clock that jumps a full interval every reading forces a variation
	// decision before every run.
	cur := time.Unix(1000, 0)
	var mu sync.Mutex
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Minute)
		return cur
	}

	require.NoError(t, s.Run(ctx, Session{Primary: pattern.KindPrey, ChangeInterval: time.Minute, Intensity: 0.5}))

	runs := runner.recorded()
	require.Len(t, runs, 50)
	other := 0
	for _, k := range runs {
		if k != pattern.KindPrey {
			other++
		}
	}
	assert.Greater(t, other, 0, "with 50 decisions at 30% switch probability, at least one switch is overwhelmingly likely")
}

func TestRunAbortsWhenDeviceUnavailable(t *testing.T) {
	t.Parallel()

	unavailable := fmt.Errorf("5 consecutive tap failures: %w", device.ErrDeviceUnavailable)
	runner := &fakeRunner{errs: map[int]error{2: unavailable}}
	s := newTestScheduler(runner, 12345)

	err := s.Run(context.Background(), Session{Primary: pattern.KindPrey, ChangeInterval: time.Hour, Intensity: 0.5})
	require.Error(t, err)
	assert.ErrorIs(t, err, device.ErrDeviceUnavailable)
	assert.Len(t, runner.recorded(), 2)
}

func TestRunContinuesPastTransientErrors(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{
		errs:      map[int]error{1: errors.New("flaky"), 2: errors.New("still flaky")},
		stopAfter: 4,
		cancel:    cancel,
	}
	s := newTestScheduler(runner, 12345)

	err := s.Run(ctx, Session{Primary: pattern.KindPrey, ChangeInterval: time.Hour, Intensity: 0.5})
	assert.NoError(t, err)
	assert.Len(t, runner.recorded(), 4, "transient failures do not end the session")
}

// =============================================================================
// Pattern Variation
// =============================================================================

func TestNextKindKeepRatio(t *testing.T) {
	t.Parallel()

	s := New(&fakeRunner{}, fullCatalog, rand.New(rand.NewSource(12345)), zap.NewNop())

	const trials = 10000
	kept := 0
	for i := 0; i < trials; i++ {
		if s.nextKind(pattern.KindPrey, fullCatalog()) == pattern.KindPrey {
			kept++
		}
	}
	ratio := float64(kept) / trials
	assert.InDelta(t, keepProbability, ratio, 0.05, "keep ratio %.3f drifted from %.2f", ratio, keepProbability)
}

func TestNextKindSpreadsOverAlternatives(t *testing.T) {
	t.Parallel()

	s := New(&fakeRunner{}, fullCatalog, rand.New(rand.NewSource(99)), zap.NewNop())

	counts := make(map[pattern.Kind]int)
	for i := 0; i < 10000; i++ {
		counts[s.nextKind(pattern.KindPrey, fullCatalog())]++
	}
	// Every alternative should be picked at least once in 10000 trials.
	for _, k := range fullCatalog() {
		assert.Greater(t, counts[k], 0, k.String())
	}
}

func TestNextKindWithNoAlternatives(t *testing.T) {
	t.Parallel()

	s := New(&fakeRunner{}, fullCatalog, rand.New(rand.NewSource(1)), zap.NewNop())

	only := []pattern.Kind{pattern.KindPrey}
	for i := 0; i < 100; i++ {
		assert.Equal(t, pattern.KindPrey, s.nextKind(pattern.KindPrey, only))
	}
}
