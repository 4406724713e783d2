package alloc

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === DrawKey ===

// DrawKey uniquely identifies a reproducible lottery draw.
// Two runs with the same DrawKey and identical profiles MUST produce
// bit-for-bit identical assignments.
type DrawKey int64

// NewDrawKey creates a DrawKey from a seed value.
func NewDrawKey(seed int64) DrawKey {
	return DrawKey(seed)
}

// === Subsystem Constants ===

// SubsystemSampler is the RNG subsystem for the final lottery draw.
// Uses the master seed directly, so --seed N draws from rand.NewSource(N).
const SubsystemSampler = "sampler"

// SubsystemProfile returns the subsystem name for the N-th profile of a batch.
func SubsystemProfile(id int) string {
	return fmt.Sprintf("profile_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemSampler: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Derive every stream from one goroutine and
// hand each *rand.Rand to exactly one consumer.
type PartitionedRNG struct {
	key        DrawKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a DrawKey.
func NewPartitionedRNG(key DrawKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.SeedFor(name)))
	p.subsystems[name] = rng
	return rng
}

// SeedFor returns the derived seed of a subsystem without creating its stream.
func (p *PartitionedRNG) SeedFor(name string) int64 {
	if name == SubsystemSampler {
		return int64(p.key)
	}
	return int64(p.key) ^ fnv1a64(name)
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
