package alloc

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/fairshare/alloc/trace"
)

// roundoffFraction scales Epsilon down to the level below which a working
// entry is treated as subtraction noise.
const roundoffFraction = 1e-3

// Permutation maps agent index to item index; a bijection on 0..n-1.
type Permutation []int

// IsBijection reports whether p maps 0..n-1 onto 0..n-1 for n = len(p).
func (p Permutation) IsBijection() bool {
	seen := make([]bool, len(p))
	for _, j := range p {
		if j < 0 || j >= len(p) || seen[j] {
			return false
		}
		seen[j] = true
	}
	return true
}

// PermutationWeight is one deterministic assignment together with the
// probability the lottery gives it.
type PermutationWeight struct {
	Assignment Permutation
	Weight     float64
}

// Lottery is a convex combination of one-to-one assignments whose expectation
// is an AllocationMatrix. Entries are kept in extraction order.
type Lottery struct {
	agents  []AgentID
	items   []Item
	entries []PermutationWeight
}

// NewLottery builds a lottery from explicit entries, e.g. one reloaded for
// audit. Each assignment must be a bijection over the labels and each weight
// non-negative and finite. Weights are not required to sum to 1.
func NewLottery(agents []AgentID, items []Item, entries []PermutationWeight) (*Lottery, error) {
	if len(agents) != len(items) {
		return nil, fmt.Errorf("lottery needs as many agents as items: %d agents, %d items", len(agents), len(items))
	}
	l := &Lottery{
		agents:  append([]AgentID(nil), agents...),
		items:   append([]Item(nil), items...),
		entries: make([]PermutationWeight, len(entries)),
	}
	for k, e := range entries {
		if len(e.Assignment) != len(agents) || !e.Assignment.IsBijection() {
			return nil, fmt.Errorf("lottery entry %d is not a one-to-one assignment", k)
		}
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight < 0 {
			return nil, fmt.Errorf("lottery entry %d has invalid weight %v", k, e.Weight)
		}
		l.entries[k] = PermutationWeight{
			Assignment: append(Permutation(nil), e.Assignment...),
			Weight:     e.Weight,
		}
	}
	return l, nil
}

// Len returns the number of entries.
func (l *Lottery) Len() int { return len(l.entries) }

// Entry returns a copy of entry k.
func (l *Lottery) Entry(k int) PermutationWeight {
	e := l.entries[k]
	return PermutationWeight{Assignment: append(Permutation(nil), e.Assignment...), Weight: e.Weight}
}

// Entries returns copies of all entries in order.
func (l *Lottery) Entries() []PermutationWeight {
	out := make([]PermutationWeight, len(l.entries))
	for k := range l.entries {
		out[k] = l.Entry(k)
	}
	return out
}

// Agents returns the agent labels in index order.
func (l *Lottery) Agents() []AgentID { return append([]AgentID(nil), l.agents...) }

// Items returns the item labels in index order.
func (l *Lottery) Items() []Item { return append([]Item(nil), l.items...) }

// TotalWeight returns the sum of entry weights.
func (l *Lottery) TotalWeight() float64 {
	total := 0.0
	for _, e := range l.entries {
		total += e.Weight
	}
	return total
}

// Mapping returns entry k as agent → item.
func (l *Lottery) Mapping(k int) map[AgentID]ItemID {
	out := make(map[AgentID]ItemID, len(l.agents))
	for i, j := range l.entries[k].Assignment {
		out[l.agents[i]] = l.items[j].ID
	}
	return out
}

// Reconstruct returns the weighted sum of the lottery's permutation matrices.
func (l *Lottery) Reconstruct() (*AllocationMatrix, error) {
	n := len(l.agents)
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	for _, e := range l.entries {
		for i, j := range e.Assignment {
			rows[i][j] += e.Weight
		}
	}
	return NewAllocationMatrix(l.agents, l.items, rows)
}

// Decompose expresses a doubly-stochastic matrix as a lottery over one-to-one
// assignments (Birkhoff–von Neumann).
func Decompose(m *AllocationMatrix, cfg Config) (*Lottery, error) {
	return DecomposeTraced(m, cfg, nil)
}

// DecomposeTraced is Decompose with one record per extracted permutation
// appended to tr when tracing is enabled. tr may be nil.
//
// Weights are rescaled by their total before verification, so they sum to 1
// within Epsilon; the reconstruction must match m within
// cfg.ReconstructionTolerance.
func DecomposeTraced(m *AllocationMatrix, cfg Config, tr *trace.AllocationTrace) (*Lottery, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, invalidMatrixf("matrix is nil")
	}
	if err := m.Validate(cfg.Epsilon); err != nil {
		return nil, err
	}

	n := m.Size()
	work := make([][]float64, n)
	for i := range work {
		work[i] = m.Row(i)
	}

	entries, err := extract(work, cfg, func(step int, perm []int, w float64, bottleneck, support int) {
		logrus.Debugf("[step %03d] weight=%.6g support=%d bottleneck=(%s,%s)",
			step, w, support, m.agents[bottleneck], m.items[perm[bottleneck]].ID)
		if !tr.Enabled() {
			return
		}
		record := trace.StepRecord{
			Step:        step,
			Weight:      w,
			SupportSize: support,
			Bottleneck: trace.Pairing{
				Agent: string(m.agents[bottleneck]),
				Item:  string(m.items[perm[bottleneck]].ID),
			},
			Pairings: make([]trace.Pairing, n),
		}
		for i, j := range perm {
			record.Pairings[i] = trace.Pairing{Agent: string(m.agents[i]), Item: string(m.items[j].ID)}
		}
		tr.RecordStep(record)
	})
	if err != nil {
		return nil, err
	}

	l := &Lottery{agents: m.Agents(), items: m.Items(), entries: entries}
	total := l.TotalWeight()
	if total <= 0 {
		return nil, ErrEmptyLottery
	}
	for k := range l.entries {
		l.entries[k].Weight /= total
	}
	if err := verifyLottery(l, m, cfg); err != nil {
		return nil, err
	}
	return l, nil
}

// stepFunc observes one extracted permutation: the matching, its weight, the
// agent whose entry set the weight, and how many entries exceeded Epsilon.
type stepFunc func(step int, perm []int, w float64, bottleneck, support int)

// extract peels permutations off work until no mass is left, mutating work.
// onStep may be nil.
//
// Each step looks for a perfect matching on entries above Epsilon, falling back
// to every entry above the round-off floor (Epsilon/1000) so that legitimately
// small probabilities are still extracted. The smallest matched entry becomes
// the weight and is subtracted along the matching; the bottleneck entry reaches
// exactly zero, so there are at most n² steps. When no perfect matching exists
// the leftover row mass must be within cfg.ReconstructionTolerance.
func extract(work [][]float64, cfg Config, onStep stepFunc) ([]PermutationWeight, error) {
	n := len(work)
	eps := cfg.Epsilon
	floor := eps * roundoffFraction
	for i := range work {
		for j, v := range work[i] {
			if v <= floor {
				work[i][j] = 0
			}
		}
	}

	var entries []PermutationWeight
	maxSteps := n * n
	for step := 1; maxEntry(work) > floor; step++ {
		if step > maxSteps {
			return nil, invariantf("decomposition did not finish within %d steps", maxSteps)
		}
		support := supportSize(work, eps)
		perm, perfect := perfectMatching(work, eps)
		if !perfect {
			perm, perfect = perfectMatching(work, floor)
		}
		if !perfect {
			residual := maxRowSum(work)
			if residual > cfg.ReconstructionTolerance {
				return nil, invariantf("no perfect matching in support graph at step %d (residual mass %g exceeds %g)",
					step, residual, cfg.ReconstructionTolerance)
			}
			if residual > cfg.ReconstructionTolerance/2 {
				logrus.Warnf("[step %03d] dropping residual mass %g, close to the limit %g",
					step, residual, cfg.ReconstructionTolerance)
			} else {
				logrus.Debugf("[step %03d] dropping residual mass %g", step, residual)
			}
			break
		}

		bottleneck := 0
		for i := 1; i < n; i++ {
			if work[i][perm[i]] < work[bottleneck][perm[bottleneck]] {
				bottleneck = i
			}
		}
		w := work[bottleneck][perm[bottleneck]]
		for i, j := range perm {
			work[i][j] -= w
			if work[i][j] <= floor {
				work[i][j] = 0
			}
		}
		entries = append(entries, PermutationWeight{Assignment: perm, Weight: w})
		if onStep != nil {
			onStep(step, perm, w, bottleneck, support)
		}
	}

	if len(entries) == 0 {
		return nil, ErrEmptyLottery
	}
	return entries, nil
}

// verifyLottery checks that weights sum to 1 within Epsilon and that the
// weighted permutations reproduce the source matrix within
// ReconstructionTolerance.
func verifyLottery(l *Lottery, m *AllocationMatrix, cfg Config) error {
	if total := l.TotalWeight(); math.Abs(total-1) > cfg.Epsilon {
		return invariantf("lottery weights sum to %.12f, want 1", total)
	}
	rebuilt, err := l.Reconstruct()
	if err != nil {
		return fmt.Errorf("%w: reconstructing lottery: %v", ErrInvariantViolation, err)
	}
	if dev := rebuilt.MaxDeviation(m); dev > cfg.ReconstructionTolerance {
		return invariantf("lottery misses the allocation matrix by %g (limit %g)", dev, cfg.ReconstructionTolerance)
	}
	return nil
}

func maxEntry(w [][]float64) float64 {
	best := 0.0
	for _, row := range w {
		for _, v := range row {
			if v > best {
				best = v
			}
		}
	}
	return best
}

func maxRowSum(w [][]float64) float64 {
	best := 0.0
	for _, row := range w {
		s := 0.0
		for _, v := range row {
			s += v
		}
		if s > best {
			best = s
		}
	}
	return best
}

func supportSize(w [][]float64, eps float64) int {
	count := 0
	for _, row := range w {
		for _, v := range row {
			if v > eps {
				count++
			}
		}
	}
	return count
}
