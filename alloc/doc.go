// Package alloc turns strict rankings into a fair randomized one-to-one
// assignment with the Probabilistic Serial (Bogomolnaia–Moulin) mechanism.
//
// # Reading Guide
//
// The pipeline is four pure stages, each in its own file:
//   - profile.go: PreferenceProfile, the validated, frozen input
//   - eating.go: the simultaneous eating process → AllocationMatrix
//   - lottery.go: Birkhoff–von Neumann decomposition → Lottery
//   - sampler.go: one draw from the Lottery → FinalAssignment
//
// pipeline.go chains them; spec.go loads profiles from YAML; rng.go derives
// reproducible random streams from one seed.
//
// # Numerical Policy
//
// All comparisons on probability mass use Config.Epsilon (default 1e-9); no
// floating value is ever compared for exact equality. Items that run out in the
// same eating round are exhausted as one batch.
//
// The decomposer treats only entries below Epsilon/1000 as subtraction noise,
// so probabilities smaller than Epsilon are still extracted. Lottery weights
// are rescaled to sum to 1, and the reconstruction is checked against
// Config.ReconstructionTolerance (default 10·Epsilon).
//
// # Concurrency
//
// No stage keeps state between calls and profiles are immutable, so separate
// invocations may run concurrently. A single invocation is sequential. The
// random source and trace passed to Run belong to that invocation alone.
//
// # Complexity
//
// Eating: at most n+1 rounds of O(n) work. Decomposition: at most n² steps, each
// a Kuhn matching of O(n³). Profiles are bounded by Config.MaxParticipants.
package alloc
