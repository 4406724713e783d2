package alloc

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/fairshare/alloc/internal/testutil"
	"github.com/inference-sim/fairshare/alloc/trace"
)

func TestSimulate_GoldenDataset(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	require.NotEmpty(t, dataset.Tests)

	for _, tc := range dataset.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			// GIVEN the golden profile
			rankings := make([]AgentRanking, len(tc.Agents))
			for i, a := range tc.Agents {
				r := AgentRanking{Agent: AgentID(a.ID)}
				for _, id := range a.Ranking {
					r.Ranking = append(r.Ranking, ItemID(id))
				}
				rankings[i] = r
			}
			p, err := NewPreferenceProfile(testItems(tc.Items...), rankings, DefaultConfig())
			require.NoError(t, err)

			// WHEN the eating process runs with tracing
			tr := trace.NewAllocationTrace(trace.TraceConfig{Level: trace.TraceLevelRounds})
			m, err := SimulateTraced(p, DefaultConfig(), tr)
			require.NoError(t, err)

			// THEN every entry matches the hand-derived allocation
			for i := range tc.Expected {
				for j := range tc.Expected[i] {
					name := fmt.Sprintf("P(%s, %s)", tc.Agents[i].ID, tc.Items[j])
					testutil.AssertFloat64Near(t, name, tc.Expected[i][j], m.At(i, j), 1e-9)
				}
			}

			// AND the trace has the expected event structure
			summary := trace.Summarize(tr)
			assert.Equal(t, tc.Metrics.Rounds, summary.TotalRounds, "rounds")
			assert.Equal(t, tc.Metrics.MaxSimultaneous, summary.MaxSimultaneous, "max simultaneous exhaustion")
			if diff := cmp.Diff(tc.Metrics.ExhaustionOrder, summary.ExhaustionOrder); diff != "" {
				t.Errorf("exhaustion order mismatch (-want +got):\n%s", diff)
			}
			testutil.AssertFloat64Equal(t, "eating time", 1.0, summary.EatingTime, 1e-9)
		})
	}
}

func TestSimulate_TieInTopChoice(t *testing.T) {
	// GIVEN two agents with identical rankings
	p := newTestProfile(t, []string{"Item1", "Item2"},
		[]string{"Item1", "Item2"},
		[]string{"Item1", "Item2"},
	)

	// WHEN simulated
	m, err := Simulate(p, DefaultConfig())
	require.NoError(t, err)

	// THEN both agents get half of each item
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, 0.5, m.At(i, j), 1e-9)
		}
	}
}

func TestSimulate_NoConflict(t *testing.T) {
	// GIVEN three agents whose top choices are all distinct
	p := newTestProfile(t, []string{"ItemA", "ItemB", "ItemC"},
		[]string{"ItemC", "ItemA", "ItemB"},
		[]string{"ItemA", "ItemC", "ItemB"},
		[]string{"ItemB", "ItemA", "ItemC"},
	)

	// WHEN simulated
	m, err := Simulate(p, DefaultConfig())
	require.NoError(t, err)

	// THEN each agent gets its top choice with certainty
	probs := m.ByAgent()
	assert.InDelta(t, 1.0, probs["agent1"]["ItemC"], 1e-9)
	assert.InDelta(t, 1.0, probs["agent2"]["ItemA"], 1e-9)
	assert.InDelta(t, 1.0, probs["agent3"]["ItemB"], 1e-9)
	assert.InDelta(t, 0.0, probs["agent1"]["ItemA"], 1e-9)
}

func TestSimulate_SingleAgent(t *testing.T) {
	p := newTestProfile(t, []string{"only"}, []string{"only"})
	m, err := Simulate(p, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.At(0, 0), 1e-12)
}

func TestSimulate_NilOrEmptyProfile(t *testing.T) {
	_, err := Simulate(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = Simulate(&PreferenceProfile{}, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestSimulate_InvalidConfig(t *testing.T) {
	p := newTestProfile(t, []string{"only"}, []string{"only"})
	_, err := Simulate(p, Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSimulate_Deterministic_BitIdentical(t *testing.T) {
	// GIVEN a random 12-agent profile
	rng := rand.New(rand.NewSource(99))
	p := randomProfile(t, rng, 12)

	// WHEN simulated twice
	m1, err := Simulate(p, DefaultConfig())
	require.NoError(t, err)
	m2, err := Simulate(p, DefaultConfig())
	require.NoError(t, err)

	// THEN the outputs are bit-for-bit identical
	for i := 0; i < p.Size(); i++ {
		assert.Equal(t, m1.Row(i), m2.Row(i), "row %d", i)
	}
}

func TestSimulate_RandomProfiles_DoublyStochastic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(15)
		p := randomProfile(t, rng, n)

		m, err := Simulate(p, DefaultConfig())
		require.NoError(t, err, "trial %d (n=%d)", trial, n)

		for i := 0; i < n; i++ {
			assert.InDelta(t, 1.0, m.RowSum(i), 1e-9, "trial %d row %d", trial, i)
			assert.InDelta(t, 1.0, m.ColSum(i), 1e-9, "trial %d col %d", trial, i)
			for j := 0; j < n; j++ {
				v := m.At(i, j)
				assert.True(t, v >= 0 && v <= 1+1e-9, "trial %d entry (%d,%d)=%v", trial, i, j, v)
			}
		}
	}
}

// Each agent weakly prefers its own lottery to anyone else's: for every prefix
// of its ranking, its mass on that prefix is at least the other agent's.
func TestSimulate_RandomProfiles_EnvyFree(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))
	for trial := 0; trial < 100; trial++ {
		n := 2 + rng.Intn(8)
		p := randomProfile(t, rng, n)
		m, err := Simulate(p, DefaultConfig())
		require.NoError(t, err)

		for i := 0; i < n; i++ {
			ranking := p.rankingAt(i)
			for k := 0; k < n; k++ {
				if k == i {
					continue
				}
				own, other := 0.0, 0.0
				for _, j := range ranking {
					own += m.At(i, j)
					other += m.At(k, j)
					if own < other-1e-9 {
						t.Fatalf("trial %d: agent %d envies agent %d (%.12f < %.12f)", trial, i, k, own, other)
					}
				}
			}
		}
	}
}

func TestSimulateTraced_RecordsDemandAndSwitches(t *testing.T) {
	// GIVEN three agents all starting on A
	p := newTestProfile(t, []string{"A", "B", "C"},
		[]string{"A", "B", "C"},
		[]string{"A", "C", "B"},
		[]string{"A", "B", "C"},
	)
	tr := trace.NewAllocationTrace(trace.TraceConfig{Level: trace.TraceLevelRounds})

	// WHEN simulated with tracing
	_, err := SimulateTraced(p, DefaultConfig(), tr)
	require.NoError(t, err)

	// THEN the first round shows three eaters on A and three switches afterwards
	require.NotEmpty(t, tr.Rounds)
	first := tr.Rounds[0]
	require.Len(t, first.Demand, 1)
	assert.Equal(t, "A", first.Demand[0].Item)
	assert.Equal(t, 3, first.Demand[0].Eaters)
	assert.InDelta(t, 1.0/3.0, first.Duration, 1e-12)
	assert.Equal(t, 3, first.Switches)
}

func TestSimulateTraced_NoneLevelRecordsNothing(t *testing.T) {
	p := newTestProfile(t, []string{"a", "b"}, []string{"a", "b"}, []string{"a", "b"})
	tr := trace.NewAllocationTrace(trace.TraceConfig{Level: trace.TraceLevelNone})
	_, err := SimulateTraced(p, DefaultConfig(), tr)
	require.NoError(t, err)
	assert.Empty(t, tr.Rounds)
}

func TestSimulate_SupportFollowsRanking(t *testing.T) {
	// GIVEN agent2 ranks "c" last while everyone else wants it first
	p := newTestProfile(t, []string{"a", "b", "c"},
		[]string{"c", "a", "b"},
		[]string{"a", "b", "c"},
		[]string{"c", "b", "a"},
	)
	m, err := Simulate(p, DefaultConfig())
	require.NoError(t, err)

	// THEN agent2 never eats "c": it is gone before agent2 gets there
	assert.InDelta(t, 0.0, m.At(1, 2), 1e-12)
}

func TestEatingState_Run_RoundLimit(t *testing.T) {
	// GIVEN identical rankings, which need two rounds
	p := newTestProfile(t, []string{"a", "b"}, []string{"a", "b"}, []string{"a", "b"})
	tests := []struct {
		name      string
		maxRounds int
		wantErr   bool
	}{
		{"one round is not enough", 1, true},
		{"exactly enough", 2, false},
		{"default bound", p.Size() + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newEatingState(p)
			err := st.run(DefaultEpsilon, tt.maxRounds, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvariantViolation)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, 1.0, st.elapsed, 1e-12)
		})
	}
}

func TestEatingState_ExhaustBatch(t *testing.T) {
	p := newTestProfile(t, []string{"a", "b", "c", "d"},
		[]string{"a", "b", "c", "d"},
		[]string{"b", "a", "c", "d"},
		[]string{"c", "a", "b", "d"},
		[]string{"d", "a", "b", "c"},
	)
	tests := []struct {
		name          string
		remaining     []float64
		demand        []int
		wantBatch     []int
		wantWarnings  int
		wantRemaining []float64
	}{
		{
			name:          "items within epsilon run out together",
			remaining:     []float64{5e-10, -5e-10, 0.3, 0.2},
			demand:        []int{1, 1, 1, 1},
			wantBatch:     []int{0, 1},
			wantRemaining: []float64{0, 0, 0.3, 0.2},
		},
		{
			name:          "overdraw is clamped and reported",
			remaining:     []float64{0.5, -5e-9, 0.3, 0.2},
			demand:        []int{1, 1, 1, 1},
			wantBatch:     []int{1},
			wantWarnings:  1,
			wantRemaining: []float64{0.5, 0, 0.3, 0.2},
		},
		{
			name:          "untouched items are never exhausted",
			remaining:     []float64{0.5, 1e-10, 0.3, 0.2},
			demand:        []int{2, 0, 1, 1},
			wantBatch:     nil,
			wantRemaining: []float64{0.5, 1e-10, 0.3, 0.2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := logtest.NewGlobal()
			st := newEatingState(p)
			copy(st.remaining, tt.remaining)

			batch := st.exhaustBatch(tt.demand, DefaultEpsilon)

			assert.Equal(t, tt.wantBatch, batch)
			assert.Equal(t, tt.wantRemaining, st.remaining)
			for _, j := range tt.wantBatch {
				assert.True(t, st.exhausted[j], "item %d", j)
			}
			assert.Len(t, warnings(hook), tt.wantWarnings)
		})
	}
}

func BenchmarkSimulate_50Agents(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	p := randomProfile(b, rng, DefaultMaxParticipants)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Simulate(p, DefaultConfig()); err != nil {
			b.Fatal(err)
		}
	}
}
