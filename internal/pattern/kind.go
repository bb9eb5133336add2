// internal/pattern/kind.go
package pattern

import (
	"fmt"
	"math/rand"
	"time"
)

// Kind enumerates the available pattern kinds. Selection is a closed enum
// rather than string-keyed dispatch so the compiler enforces exhaustiveness.
type Kind uint8

const (
	KindRandom Kind = iota
	KindCircular
	KindLaser
	KindFixedPoints
	KindPrey

	// Reactive kinds are generated live from tracker state, not authored as
	// command sequences. They participate in the catalog only when tracking
	// is enabled.
	KindFollowing
	KindTeasing
	KindEnrichment
)

var kindNames = map[Kind]string{
	KindRandom:      "random",
	KindCircular:    "circular",
	KindLaser:       "laser",
	KindFixedPoints: "fixed-points",
	KindPrey:        "kitty",
	KindFollowing:   "following",
	KindTeasing:     "teasing",
	KindEnrichment:  "enrichment",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Reactive reports whether the kind consumes tracker state.
func (k Kind) Reactive() bool {
	switch k {
	case KindFollowing, KindTeasing, KindEnrichment:
		return true
	}
	return false
}

// ParseKind resolves a user-facing pattern name.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown pattern %q", s)
}

// AuthoredKinds lists the non-reactive kinds in catalog order.
func AuthoredKinds() []Kind {
	return []Kind{KindRandom, KindCircular, KindLaser, KindFixedPoints, KindPrey}
}

// ReactiveKinds lists the tracker-driven kinds in catalog order.
func ReactiveKinds() []Kind {
	return []Kind{KindFollowing, KindTeasing, KindEnrichment}
}

// BuildFunc constructs a fresh authored pattern. Randomized patterns consume
// the supplied rng during construction, so an identical seed yields an
// identical command sequence.
type BuildFunc func(timeUnit time.Duration, rng *rand.Rand) *Pattern

// builders is the factory map for authored kinds.
var builders = map[Kind]BuildFunc{
	KindRandom:      Random,
	KindCircular:    func(tu time.Duration, _ *rand.Rand) *Pattern { return Circular(tu) },
	KindLaser:       Laser,
	KindFixedPoints: func(tu time.Duration, _ *rand.Rand) *Pattern { return FixedPoints(tu) },
	KindPrey:        Prey,
}

// Build constructs an authored pattern of the given kind.
func Build(k Kind, timeUnit time.Duration, rng *rand.Rand) (*Pattern, error) {
	fn, ok := builders[k]
	if !ok {
		return nil, fmt.Errorf("pattern %s is not an authored pattern", k)
	}
	return fn(timeUnit, rng), nil
}
