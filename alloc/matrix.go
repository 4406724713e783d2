package alloc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// AllocationMatrix is the fractional assignment produced by the eating process:
// entry (i, j) is the probability that agent i receives item j. It is square,
// non-negative and doubly stochastic within the tolerance it was validated with.
// Immutable once constructed.
type AllocationMatrix struct {
	agents []AgentID
	items  []Item
	data   *mat.Dense
}

// NewAllocationMatrix copies rows into a new matrix after checking shape and
// entry ranges. Stochasticity is checked separately by Validate so that the
// decomposer can report it as a precondition failure.
func NewAllocationMatrix(agents []AgentID, items []Item, rows [][]float64) (*AllocationMatrix, error) {
	n := len(agents)
	if n == 0 {
		return nil, invalidMatrixf("matrix has no rows")
	}
	if len(items) != n {
		return nil, invalidMatrixf("matrix must be square: %d agents, %d items", n, len(items))
	}
	if len(rows) != n {
		return nil, invalidMatrixf("expected %d rows, got %d", n, len(rows))
	}
	data := mat.NewDense(n, n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, invalidMatrixf("row %d (agent %q) has %d entries, want %d", i, agents[i], len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, invalidMatrixf("entry (%q, %q) is not finite", agents[i], items[j].ID)
			}
			if v < 0 {
				return nil, invalidMatrixf("entry (%q, %q) is negative: %g", agents[i], items[j].ID, v)
			}
		}
		data.SetRow(i, row)
	}
	return &AllocationMatrix{
		agents: append([]AgentID(nil), agents...),
		items:  append([]Item(nil), items...),
		data:   data,
	}, nil
}

// Size returns the number of rows (and columns).
func (m *AllocationMatrix) Size() int { return len(m.agents) }

// Agents returns row labels in index order.
func (m *AllocationMatrix) Agents() []AgentID { return append([]AgentID(nil), m.agents...) }

// Items returns column labels in index order.
func (m *AllocationMatrix) Items() []Item { return append([]Item(nil), m.items...) }

// At returns entry (i, j).
func (m *AllocationMatrix) At(i, j int) float64 { return m.data.At(i, j) }

// Row returns a copy of row i.
func (m *AllocationMatrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.data)
}

// RowSum returns the probability mass allocated to agent i.
func (m *AllocationMatrix) RowSum(i int) float64 {
	return floats.Sum(m.data.RawRowView(i))
}

// ColSum returns the supply of item j that has been allocated.
func (m *AllocationMatrix) ColSum(j int) float64 {
	return floats.Sum(mat.Col(nil, j, m.data))
}

// Probability looks up the probability that agent receives item.
func (m *AllocationMatrix) Probability(agent AgentID, item ItemID) (float64, error) {
	i := indexOfAgent(m.agents, agent)
	if i < 0 {
		return 0, fmt.Errorf("unknown agent %q", agent)
	}
	j := indexOfItem(m.items, item)
	if j < 0 {
		return 0, fmt.Errorf("unknown item %q", item)
	}
	return m.data.At(i, j), nil
}

// ByAgent returns agent → item → probability for display. Zero entries are included.
func (m *AllocationMatrix) ByAgent() map[AgentID]map[ItemID]float64 {
	out := make(map[AgentID]map[ItemID]float64, len(m.agents))
	for i, a := range m.agents {
		row := make(map[ItemID]float64, len(m.items))
		for j, it := range m.items {
			row[it.ID] = m.data.At(i, j)
		}
		out[a] = row
	}
	return out
}

// MaxDeviation returns the largest entry-wise absolute difference from other,
// or +Inf when the sizes differ.
func (m *AllocationMatrix) MaxDeviation(other *AllocationMatrix) float64 {
	if m.Size() != other.Size() {
		return math.Inf(1)
	}
	return floats.Distance(m.data.RawMatrix().Data, other.data.RawMatrix().Data, math.Inf(1))
}

// Validate checks the doubly-stochastic invariant: every entry in [0, 1+eps],
// every row and column summing to 1 within eps. The returned error wraps
// ErrInvalidMatrix; callers that produced the matrix themselves re-wrap it as
// an invariant violation.
func (m *AllocationMatrix) Validate(eps float64) error {
	n := m.Size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.data.At(i, j)
			if v < -eps || v > 1+eps {
				return invalidMatrixf("entry (%q, %q) = %g outside [0,1]", m.agents[i], m.items[j].ID, v)
			}
		}
	}
	for i := 0; i < n; i++ {
		if s := m.RowSum(i); math.Abs(s-1) > eps {
			return invalidMatrixf("row %q sums to %.12f, want 1", m.agents[i], s)
		}
	}
	for j := 0; j < n; j++ {
		if s := m.ColSum(j); math.Abs(s-1) > eps {
			return invalidMatrixf("column %q sums to %.12f, want 1", m.items[j].ID, s)
		}
	}
	return nil
}

// EqualApprox reports whether two matrices over the same labels agree entry-wise within eps.
func (m *AllocationMatrix) EqualApprox(other *AllocationMatrix, eps float64) bool {
	if m.Size() != other.Size() {
		return false
	}
	return mat.EqualApprox(m.data, other.data, eps)
}

func indexOfAgent(agents []AgentID, id AgentID) int {
	for i, a := range agents {
		if a == id {
			return i
		}
	}
	return -1
}

func indexOfItem(items []Item, id ItemID) int {
	for j, it := range items {
		if it.ID == id {
			return j
		}
	}
	return -1
}
