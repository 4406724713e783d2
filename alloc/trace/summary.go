package trace

// TraceSummary aggregates statistics from an AllocationTrace.
type TraceSummary struct {
	TotalRounds            int
	TotalSteps             int
	EatingTime             float64 // sum of round durations; 1 for a complete run
	MaxSimultaneous        int     // largest number of items exhausted in one round
	TotalSwitches          int
	MinWeight              float64
	MaxWeight              float64
	TotalWeight            float64
	ExhaustionOrder        []string    // items in the order they ran out (ties in item order)
	ExhaustionDistribution map[int]int // batch size → number of rounds with that batch size
}

// Summarize computes aggregate statistics from an AllocationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(at *AllocationTrace) *TraceSummary {
	summary := &TraceSummary{
		ExhaustionDistribution: make(map[int]int),
	}
	if at == nil {
		return summary
	}

	summary.TotalRounds = len(at.Rounds)
	for _, r := range at.Rounds {
		summary.EatingTime += r.Duration
		summary.TotalSwitches += r.Switches
		if len(r.Exhausted) > summary.MaxSimultaneous {
			summary.MaxSimultaneous = len(r.Exhausted)
		}
		if len(r.Exhausted) > 0 {
			summary.ExhaustionDistribution[len(r.Exhausted)]++
		}
		summary.ExhaustionOrder = append(summary.ExhaustionOrder, r.Exhausted...)
	}

	summary.TotalSteps = len(at.Steps)
	for i, s := range at.Steps {
		summary.TotalWeight += s.Weight
		if i == 0 || s.Weight < summary.MinWeight {
			summary.MinWeight = s.Weight
		}
		if s.Weight > summary.MaxWeight {
			summary.MaxWeight = s.Weight
		}
	}

	return summary
}
