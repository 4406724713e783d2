package alloc

import (
	"fmt"
	"math"
)

const (
	// DefaultEpsilon is the tolerance used for every zero/equality comparison on
	// probability mass.
	DefaultEpsilon = 1e-9

	// DefaultMaxParticipants bounds the number of agents (and items) in one profile.
	// Decomposition is O(n^4) in the worst case, so unbounded groups are rejected.
	DefaultMaxParticipants = 50

	// reconstructionFactor sets the default ReconstructionTolerance relative to
	// Epsilon. Clamping a nearly-exhausted item in the eating process can leave a
	// column up to Epsilon short, which the decomposition then has to absorb.
	reconstructionFactor = 10

	// maxEpsilon keeps the tolerance far below any probability a user would see
	// rendered at one decimal place of a percentage.
	maxEpsilon = 1e-3
)

// Config holds the numerical and sizing policy shared by every pipeline stage.
type Config struct {
	Epsilon         float64 // tolerance for zero/equality comparisons
	MaxParticipants int     // upper bound on |agents| == |items|

	// ReconstructionTolerance bounds both the per-agent mass the decomposer may
	// leave unextracted and the entry-wise gap between a lottery's reconstruction
	// and its source matrix. Must be at least Epsilon.
	ReconstructionTolerance float64
}

// NewConfig creates a Config with ReconstructionTolerance derived from epsilon.
// Callers should Validate before use.
func NewConfig(epsilon float64, maxParticipants int) Config {
	return Config{
		Epsilon:                 epsilon,
		MaxParticipants:         maxParticipants,
		ReconstructionTolerance: reconstructionFactor * epsilon,
	}
}

// DefaultConfig returns the tolerance and size bound used when nothing is configured.
func DefaultConfig() Config {
	return NewConfig(DefaultEpsilon, DefaultMaxParticipants)
}

// Validate checks that the tolerance is usable and the size bound is positive.
func (c Config) Validate() error {
	if math.IsNaN(c.Epsilon) || math.IsInf(c.Epsilon, 0) {
		return fmt.Errorf("%w: epsilon must be a finite number, got %v", ErrInvalidConfig, c.Epsilon)
	}
	if c.Epsilon <= 0 || c.Epsilon >= maxEpsilon {
		return fmt.Errorf("%w: epsilon must be in (0, %g), got %g", ErrInvalidConfig, maxEpsilon, c.Epsilon)
	}
	if math.IsNaN(c.ReconstructionTolerance) || c.ReconstructionTolerance < c.Epsilon || c.ReconstructionTolerance >= maxEpsilon {
		return fmt.Errorf("%w: reconstruction tolerance must be in [epsilon, %g), got %g",
			ErrInvalidConfig, maxEpsilon, c.ReconstructionTolerance)
	}
	if c.MaxParticipants < 1 {
		return fmt.Errorf("%w: max participants must be at least 1, got %d", ErrInvalidConfig, c.MaxParticipants)
	}
	return nil
}
