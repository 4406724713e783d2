package alloc

import (
	"fmt"
	"math"
)

// RandomSource yields uniform draws in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// FinalAssignment is the realized one-to-one outcome of a lottery draw.
// Immutable once created.
type FinalAssignment struct {
	agents     []AgentID
	items      []Item
	assignment Permutation
	entry      int
	draw       float64
}

// Assignment returns a copy of the realized permutation (agent index → item index).
func (a *FinalAssignment) Assignment() Permutation {
	return append(Permutation(nil), a.assignment...)
}

// Entry returns the index of the lottery entry that was drawn.
func (a *FinalAssignment) Entry() int { return a.entry }

// Draw returns the uniform value that selected the entry.
func (a *FinalAssignment) Draw() float64 { return a.draw }

// Agents returns the agent labels in index order.
func (a *FinalAssignment) Agents() []AgentID { return append([]AgentID(nil), a.agents...) }

// ItemFor returns the item assigned to agent.
func (a *FinalAssignment) ItemFor(agent AgentID) (Item, bool) {
	i := indexOfAgent(a.agents, agent)
	if i < 0 {
		return Item{}, false
	}
	return a.items[a.assignment[i]], true
}

// ByAgent returns the assignment as agent → item ID.
func (a *FinalAssignment) ByAgent() map[AgentID]ItemID {
	out := make(map[AgentID]ItemID, len(a.agents))
	for i, j := range a.assignment {
		out[a.agents[i]] = a.items[j].ID
	}
	return out
}

// Sample draws one value from src and returns the lottery entry whose
// cumulative weight first exceeds it. The draw is scaled by the lottery's total
// weight, so rounding in the weights never leaves the draw unmatched.
func Sample(l *Lottery, src RandomSource) (*FinalAssignment, error) {
	if l == nil || l.Len() == 0 {
		return nil, ErrEmptyLottery
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvariantViolation)
	}
	u := src.Float64()
	if math.IsNaN(u) || u < 0 || u >= 1 {
		return nil, invariantf("random draw %v outside [0, 1)", u)
	}
	k := l.pick(u)
	if k < 0 {
		return nil, fmt.Errorf("%w: all weights are zero", ErrEmptyLottery)
	}
	return &FinalAssignment{
		agents:     l.Agents(),
		items:      l.Items(),
		assignment: append(Permutation(nil), l.entries[k].Assignment...),
		entry:      k,
		draw:       u,
	}, nil
}

// pick walks cumulative weights; returns -1 when no entry has positive weight.
func (l *Lottery) pick(u float64) int {
	target := u * l.TotalWeight()
	cumulative := 0.0
	last := -1
	for k, e := range l.entries {
		if e.Weight <= 0 {
			continue
		}
		last = k
		cumulative += e.Weight
		if cumulative > target {
			return k
		}
	}
	return last
}
