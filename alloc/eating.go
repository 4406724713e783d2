package alloc

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/fairshare/alloc/trace"
)

// noTarget marks an agent whose ranking has no remaining supply.
const noTarget = -1

// eatingState is the mutable state of one eating run. It never escapes SimulateTraced.
type eatingState struct {
	profile   *PreferenceProfile
	remaining []float64   // per item
	exhausted []bool      // per item
	cursor    []int       // per agent: position in its ranking of the current target
	eaten     [][]float64 // eaten[agent][item]: accumulated eating time
	elapsed   float64
}

func newEatingState(p *PreferenceProfile) *eatingState {
	n := p.Size()
	st := &eatingState{
		profile:   p,
		remaining: make([]float64, n),
		exhausted: make([]bool, n),
		cursor:    make([]int, n),
		eaten:     make([][]float64, n),
	}
	for j := range st.remaining {
		st.remaining[j] = 1.0
	}
	for i := range st.eaten {
		st.eaten[i] = make([]float64, n)
	}
	return st
}

// target returns the item index agent i is currently eating, or noTarget.
func (st *eatingState) target(i int) int {
	ranking := st.profile.rankingAt(i)
	if st.cursor[i] >= len(ranking) {
		return noTarget
	}
	return ranking[st.cursor[i]]
}

// demand counts the agents currently eating each item.
func (st *eatingState) demand() []int {
	d := make([]int, len(st.remaining))
	for i := range st.cursor {
		if j := st.target(i); j != noTarget {
			d[j]++
		}
	}
	return d
}

// nextEvent returns the time until the first item with positive demand runs out.
// ok is false when nobody is eating.
func (st *eatingState) nextEvent(demand []int) (dt float64, ok bool) {
	for j, d := range demand {
		if d == 0 {
			continue
		}
		t := st.remaining[j] / float64(d)
		if !ok || t < dt {
			dt, ok = t, true
		}
	}
	return dt, ok
}

// eat advances the clock by dt with every agent eating its current target.
func (st *eatingState) eat(dt float64, demand []int) {
	for i := range st.cursor {
		if j := st.target(i); j != noTarget {
			st.eaten[i][j] += dt
		}
	}
	for j, d := range demand {
		if d > 0 {
			st.remaining[j] -= dt * float64(d)
		}
	}
	st.elapsed += dt
}

// exhaustBatch marks every item whose supply reached zero this round as
// exhausted, all at once, before any agent moves on. Returned in item order.
func (st *eatingState) exhaustBatch(demand []int, eps float64) []int {
	var batch []int
	for j, d := range demand {
		if d > 0 && !st.exhausted[j] && st.remaining[j] <= eps {
			batch = append(batch, j)
		}
	}
	for _, j := range batch {
		if st.remaining[j] < -eps {
			logrus.Warnf("[t=%.9f] item %q overdrawn by %g; clamping to 0",
				st.elapsed, st.profile.items[j].ID, -st.remaining[j])
		}
		st.remaining[j] = 0
		st.exhausted[j] = true
	}
	return batch
}

// advanceCursors moves every agent past exhausted items in its ranking,
// cascading through several positions when needed. Returns how many agents
// changed target.
func (st *eatingState) advanceCursors() int {
	switches := 0
	for i := range st.cursor {
		ranking := st.profile.rankingAt(i)
		start := st.cursor[i]
		for st.cursor[i] < len(ranking) && st.exhausted[ranking[st.cursor[i]]] {
			st.cursor[i]++
		}
		if st.cursor[i] != start {
			switches++
		}
	}
	return switches
}

// run eats until t reaches 1 or nobody has anything left to eat, failing if
// that takes more than maxRounds rounds.
func (st *eatingState) run(eps float64, maxRounds int, tr *trace.AllocationTrace) error {
	p := st.profile
	for round := 1; ; round++ {
		left := 1 - st.elapsed
		if left <= eps {
			return nil
		}
		if round > maxRounds {
			return invariantf("eating process did not finish after %d rounds (t=%.12f)", maxRounds, st.elapsed)
		}
		demand := st.demand()
		dt, ok := st.nextEvent(demand)
		if !ok {
			return nil
		}
		if dt > left {
			dt = left
		}

		var record trace.RoundRecord
		if tr.Enabled() {
			record = trace.RoundRecord{Round: round, Start: st.elapsed, Duration: dt}
			for j, d := range demand {
				if d > 0 {
					record.Demand = append(record.Demand, trace.ItemDemand{
						Item:      string(p.items[j].ID),
						Eaters:    d,
						Remaining: st.remaining[j],
					})
				}
			}
		}

		st.eat(dt, demand)
		batch := st.exhaustBatch(demand, eps)
		switches := st.advanceCursors()

		logrus.Debugf("[round %03d] t=%.6f dt=%.6f exhausted=%d switches=%d",
			round, st.elapsed, dt, len(batch), switches)

		if tr.Enabled() {
			for _, j := range batch {
				record.Exhausted = append(record.Exhausted, string(p.items[j].ID))
			}
			record.Switches = switches
			tr.RecordRound(record)
		}
	}
}

// Simulate runs the probabilistic serial eating process over the profile and
// returns the resulting doubly-stochastic allocation matrix.
func Simulate(p *PreferenceProfile, cfg Config) (*AllocationMatrix, error) {
	return SimulateTraced(p, cfg, nil)
}

// SimulateTraced is Simulate with per-round records appended to tr when tracing
// is enabled. tr may be nil.
//
// Agents eat their best non-exhausted item at unit rate from t=0 to t=1. Each
// round lasts until the next item runs out (or t reaches 1); all items that run
// out in the same round are exhausted together, then every affected agent
// advances to its next available item.
func SimulateTraced(p *PreferenceProfile, cfg Config, tr *trace.AllocationTrace) (*AllocationMatrix, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p == nil || p.Size() == 0 {
		return nil, profileErrorf("", "profile is empty")
	}
	st := newEatingState(p)
	// Every round but the last exhausts at least one item.
	if err := st.run(cfg.Epsilon, p.Size()+1, tr); err != nil {
		return nil, err
	}

	m, err := NewAllocationMatrix(p.agents, p.items, st.eaten)
	if err != nil {
		return nil, fmt.Errorf("%w: eating process produced a malformed matrix: %v", ErrInvariantViolation, err)
	}
	if err := m.Validate(cfg.Epsilon); err != nil {
		return nil, fmt.Errorf("%w: eating process: %v", ErrInvariantViolation, err)
	}
	return m, nil
}
