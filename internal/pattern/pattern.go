// internal/pattern/pattern.go
package pattern

import (
	"context"
	"time"

	"github.com/kfenwick/purrsuit/internal/geometry"
)

// Pattern is an ordered, immutable sequence of commands plus a name and the
// duration one Wait unit represents. Patterns are built once and replayed by
// the dispatcher any number of times.
type Pattern struct {
	name     string
	timeUnit time.Duration
	commands []Command
}

// Name returns the display name of the pattern.
func (p *Pattern) Name() string { return p.name }

// Commands returns a copy of the command sequence.
func (p *Pattern) Commands() []Command {
	out := make([]Command, len(p.commands))
	copy(out, p.commands)
	return out
}

// Execute replays the command sequence against the sink.
//
// Intensity is a (0,1] scalar that scales both reach and cadence: relative
// move coordinates resolve to min + coord*size*intensity per axis, and waits
// are stretched by a speed modifier of 2.0-intensity (1.0 at full intensity,
// 1.9 at the lowest). A failed tap is skipped, not retried; the sequence
// continues with the next command.
func (p *Pattern) Execute(ctx context.Context, sink TapSink, intensity float64) error {
	speedModifier := 2.0 - intensity

	for _, cmd := range p.commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch cmd.Op {
		case OpMove:
			x, y := resolveMove(cmd, sink.Bounds(), intensity)
			// Best effort: ExecuteTap logs failures, the sequence goes on.
			_ = sink.ExecuteTap(ctx, x, y)
		case OpWait:
			d := time.Duration(cmd.Units * speedModifier * float64(p.timeUnit))
			if err := sink.SleepWithSafety(ctx, d); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveMove converts a move command into device pixels.
func resolveMove(cmd Command, bounds geometry.Rect, intensity float64) (int, int) {
	if !cmd.Relative {
		return int(cmd.X), int(cmd.Y)
	}
	x := float64(bounds.MinX) + cmd.X*float64(bounds.Width())*intensity
	y := float64(bounds.MinY) + cmd.Y*float64(bounds.Height())*intensity
	return int(x), int(y)
}

// Builder accumulates commands for a pattern under construction.
type Builder struct {
	timeUnit time.Duration
	cmds     []Command
}

// NewBuilder starts a pattern whose Wait unit lasts timeUnit.
func NewBuilder(timeUnit time.Duration) *Builder {
	return &Builder{timeUnit: timeUnit}
}

// MoveTo appends a move command.
func (b *Builder) MoveTo(x, y float64, relative bool) *Builder {
	b.cmds = append(b.cmds, Command{Op: OpMove, X: x, Y: y, Relative: relative})
	return b
}

// Wait appends a pause of the given number of time units.
func (b *Builder) Wait(units float64) *Builder {
	b.cmds = append(b.cmds, Command{Op: OpWait, Units: units})
	return b
}

// Build finalizes the sequence into an immutable Pattern.
func (b *Builder) Build(name string) *Pattern {
	cmds := make([]Command, len(b.cmds))
	copy(cmds, b.cmds)
	return &Pattern{name: name, timeUnit: b.timeUnit, commands: cmds}
}
