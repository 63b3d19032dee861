package audio

import (
	"fmt"
	"math/rand/v2"
)

// default pacing, in milliseconds
const (
	DefaultLeadInMs = 500
	DefaultMinGapMs = 300
	DefaultMaxGapMs = 800
)

// Rand is the source of randomness for gap durations
type Rand interface {
	IntN(n int) int
}

// GapRange is a closed interval of silence durations in milliseconds
type GapRange struct {
	MinMs int
	MaxMs int
}

// DefaultGapRange returns the 300-800ms range
func DefaultGapRange() GapRange {
	return GapRange{MinMs: DefaultMinGapMs, MaxMs: DefaultMaxGapMs}
}

// Validate checks the range is usable
func (g GapRange) Validate() error {
	if g.MinMs < 0 {
		return fmt.Errorf("invalid gap range: negative minimum %d", g.MinMs)
	}
	if g.MaxMs < g.MinMs {
		return fmt.Errorf("invalid gap range: max %d is below min %d", g.MaxMs, g.MinMs)
	}
	return nil
}

// Pick returns a duration uniformly distributed over [MinMs, MaxMs]
func (g GapRange) Pick(rng Rand) int {
	if g.MaxMs <= g.MinMs {
		return g.MinMs
	}
	if rng == nil {
		return g.MinMs + rand.IntN(g.MaxMs-g.MinMs+1) // #nosec G404 -- pacing, not security
	}
	return g.MinMs + rng.IntN(g.MaxMs-g.MinMs+1)
}

// GapPolicy decides where pacing gaps go between lines
type GapPolicy int

const (
	// GapAfterEveryLine inserts a gap after every line except the last input line,
	// whether the line synthesized or not, so a dropped line keeps its pause
	GapAfterEveryLine GapPolicy = iota
	// GapAfterSegment inserts a gap only after a synthesized line that is not the last input line
	GapAfterSegment
	// GapBetweenSegments inserts a gap only between two synthesized segments
	GapBetweenSegments
)

// String returns the policy name used in configuration
func (p GapPolicy) String() string {
	switch p {
	case GapAfterSegment:
		return "after-segment"
	case GapBetweenSegments:
		return "between-segments"
	default:
		return "every-line"
	}
}

// ParseGapPolicy converts a configuration value to a policy
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch s {
	case "", "every-line":
		return GapAfterEveryLine, nil
	case "after-segment":
		return GapAfterSegment, nil
	case "between-segments":
		return GapBetweenSegments, nil
	default:
		return GapAfterEveryLine, fmt.Errorf("unknown gap policy %q", s)
	}
}
