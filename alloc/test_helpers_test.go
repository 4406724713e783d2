package alloc

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// newTestProfile builds a profile with agents named agent1..agentN; rankings
// are given in agent order.
func newTestProfile(t testing.TB, items []string, rankings ...[]string) *PreferenceProfile {
	t.Helper()
	p, err := NewPreferenceProfile(testItems(items...), testRankings(rankings...), DefaultConfig())
	require.NoError(t, err)
	return p
}

func testItems(ids ...string) []Item {
	items := make([]Item, len(ids))
	for j, id := range ids {
		items[j] = Item{ID: ItemID(id), Label: "Label " + id}
	}
	return items
}

func testRankings(rankings ...[]string) []AgentRanking {
	out := make([]AgentRanking, len(rankings))
	for i, r := range rankings {
		ids := make([]ItemID, len(r))
		for k, id := range r {
			ids[k] = ItemID(id)
		}
		out[i] = AgentRanking{Agent: AgentID(fmt.Sprintf("agent%d", i+1)), Ranking: ids}
	}
	return out
}

// randomProfile draws n uniformly random strict rankings over n items.
func randomProfile(t testing.TB, rng *rand.Rand, n int) *PreferenceProfile {
	t.Helper()
	items := make([]string, n)
	for j := range items {
		items[j] = fmt.Sprintf("item_%d", j)
	}
	rankings := make([][]string, n)
	for i := range rankings {
		perm := rng.Perm(n)
		rankings[i] = make([]string, n)
		for k, j := range perm {
			rankings[i][k] = items[j]
		}
	}
	return newTestProfile(t, items, rankings...)
}

// randomBistochastic mixes k random permutation matrices with random weights.
func randomBistochastic(t testing.TB, rng *rand.Rand, n, k int) *AllocationMatrix {
	t.Helper()
	weights := make([]float64, k)
	total := 0.0
	for i := range weights {
		weights[i] = rng.Float64() + 0.01
		total += weights[i]
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	for _, w := range weights {
		perm := rng.Perm(n)
		for i, j := range perm {
			rows[i][j] += w / total
		}
	}
	agents := make([]AgentID, n)
	ids := make([]string, n)
	for i := range agents {
		agents[i] = AgentID(fmt.Sprintf("agent%d", i+1))
		ids[i] = fmt.Sprintf("item_%d", i)
	}
	m, err := NewAllocationMatrix(agents, testItems(ids...), rows)
	require.NoError(t, err)
	return m
}

// fixedDraw is a RandomSource that always returns the same value.
type fixedDraw float64

func (f fixedDraw) Float64() float64 { return float64(f) }

// nearIdenticalProfile starts every agent from one shared ranking and applies
// up to maxSwaps random adjacent swaps, producing long chains of ties.
func nearIdenticalProfile(t testing.TB, rng *rand.Rand, n, maxSwaps int) *PreferenceProfile {
	t.Helper()
	items := make([]string, n)
	for j := range items {
		items[j] = fmt.Sprintf("item_%d", j)
	}
	base := rng.Perm(n)
	rankings := make([][]string, n)
	for i := range rankings {
		order := append([]int(nil), base...)
		for s := rng.Intn(maxSwaps + 1); s > 0 && n > 1; s-- {
			k := rng.Intn(n - 1)
			order[k], order[k+1] = order[k+1], order[k]
		}
		rankings[i] = make([]string, n)
		for k, j := range order {
			rankings[i][k] = items[j]
		}
	}
	return newTestProfile(t, items, rankings...)
}

// warnings returns the warning-or-worse entries captured by hook.
func warnings(hook *logtest.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level <= logrus.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}
