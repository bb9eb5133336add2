// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kfenwick/purrsuit/internal/device"
	"github.com/kfenwick/purrsuit/internal/pattern"
)

const (
	// keepProbability is the chance an elapsed change interval keeps the
	// user-selected primary pattern instead of switching to another one.
	keepProbability = 0.7

	// patternGap is the short yield between consecutive pattern executions.
	// Together with each pattern's internal wait slicing it keeps true
	// silent intervals below the 1-second safety bound.
	patternGap = 100 * time.Millisecond
)

// Runner executes one full pass of a pattern. The engine facade implements
// it; the scheduler itself never touches the dispatcher directly.
type Runner interface {
	RunPattern(ctx context.Context, k pattern.Kind, intensity float64) error
}

// Session describes one continuous play session.
type Session struct {
	// Primary is the user-selected pattern.
	Primary pattern.Kind
	// ChangeInterval is the literal wall-clock spacing between pattern
	// variation decisions. It is not scaled by intensity.
	ChangeInterval time.Duration
	// Intensity is the (0,1] reach/cadence scalar.
	Intensity float64
}

// Scheduler is the top-level control loop: it selects a pattern, runs it for
// one execution, probabilistically varies the choice over time, and yields
// briefly between runs. Its lifecycle is Idle, Running, Idle; start and stop
// are driven entirely by the caller's context.
type Scheduler struct {
	runner  Runner
	catalog func() []pattern.Kind
	logger  *zap.Logger
	rng     *rand.Rand

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a scheduler. The catalog callback supplies the currently active
// pattern kinds; reactive kinds appear in it only while tracking is enabled.
func New(runner Runner, catalog func() []pattern.Kind, rng *rand.Rand, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:  runner,
		catalog: catalog,
		logger:  logger,
		rng:     rng,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Run drives the session loop until the context is cancelled (a normal stop,
// returning nil) or the device becomes unreachable (the one terminal error
// for a running session).
func (s *Scheduler) Run(ctx context.Context, sess Session) error {
	id := uuid.NewString()
	s.logger.Info("session started",
		zap.String("session", id),
		zap.Stringer("pattern", sess.Primary),
		zap.Duration("change_interval", sess.ChangeInterval),
		zap.Float64("intensity", sess.Intensity))

	current := sess.Primary
	nextChange := s.now().Add(sess.ChangeInterval)

	for {
		if ctx.Err() != nil {
			s.logger.Info("session stopped", zap.String("session", id))
			return nil
		}

		if !s.now().Before(nextChange) {
			chosen := s.nextKind(sess.Primary, s.catalog())
			if chosen != current {
				s.logger.Info("pattern change",
					zap.String("session", id),
					zap.Stringer("from", current),
					zap.Stringer("to", chosen))
			}
			current = chosen
			nextChange = s.now().Add(sess.ChangeInterval)
		}

		if err := s.runner.RunPattern(ctx, current, sess.Intensity); err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				s.logger.Info("session stopped", zap.String("session", id))
				return nil
			}
			if errors.Is(err, device.ErrDeviceUnavailable) {
				s.logger.Error("device unreachable, aborting session",
					zap.String("session", id), zap.Error(err))
				return fmt.Errorf("session %s: %w", id, err)
			}
			// Anything else is best effort: log and move on.
			s.logger.Warn("pattern execution failed",
				zap.String("session", id), zap.Stringer("pattern", current), zap.Error(err))
		}

		if err := s.sleep(ctx, patternGap); err != nil {
			s.logger.Info("session stopped", zap.String("session", id))
			return nil
		}
	}
}

// nextKind keeps the primary with probability keepProbability, otherwise
// picks uniformly among the other catalog entries. With no alternatives the
// primary always wins.
func (s *Scheduler) nextKind(primary pattern.Kind, catalog []pattern.Kind) pattern.Kind {
	others := make([]pattern.Kind, 0, len(catalog))
	for _, k := range catalog {
		if k != primary {
			others = append(others, k)
		}
	}
	if len(others) == 0 || s.rng.Float64() < keepProbability {
		return primary
	}
	return others[s.rng.Intn(len(others))]
}

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
