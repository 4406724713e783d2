package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/inference-sim/fairshare/alloc"
	"github.com/inference-sim/fairshare/alloc/trace"
)

// writeProbabilities prints, per agent in profile order, every item it may
// receive with its probability as a percentage, best-ranked first. Items at or
// below eps are omitted.
func writeProbabilities(w io.Writer, p *alloc.PreferenceProfile, m *alloc.AllocationMatrix, eps float64) error {
	labels := make(map[alloc.ItemID]string, p.Size())
	for _, item := range p.Items() {
		labels[item.ID] = item.Label
	}
	fmt.Fprintln(w, "Allocation probabilities:")
	for _, agent := range p.Agents() {
		ranking, err := p.Ranking(agent)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s:\n", agent)
		for _, id := range ranking {
			prob, err := m.Probability(agent, id)
			if err != nil {
				return err
			}
			if prob > eps {
				fmt.Fprintf(w, "  %s: %.1f%%\n", labels[id], 100*prob)
			}
		}
	}
	fmt.Fprintln(w)
	return nil
}

// writeAssignments prints "agent → item" per agent in profile order.
func writeAssignments(w io.Writer, a *alloc.FinalAssignment) {
	fmt.Fprintln(w, "Final assignment:")
	for _, agent := range a.Agents() {
		item, _ := a.ItemFor(agent)
		fmt.Fprintf(w, "  %s → %s\n", agent, item.Label)
	}
}

// writeLottery prints every permutation with its weight and marks the drawn one.
func writeLottery(w io.Writer, l *alloc.Lottery, a *alloc.FinalAssignment) {
	fmt.Fprintf(w, "Lottery (%d assignments):\n", l.Len())
	agents := l.Agents()
	items := l.Items()
	for k, e := range l.Entries() {
		pairs := make([]string, len(e.Assignment))
		for i, j := range e.Assignment {
			pairs[i] = fmt.Sprintf("%s → %s", agents[i], items[j].Label)
		}
		marker := " "
		if a != nil && k == a.Entry() {
			marker = "*"
		}
		fmt.Fprintf(w, "%s #%-3d %6.2f%%  %s\n", marker, k+1, 100*e.Weight, strings.Join(pairs, ", "))
	}
	if a != nil {
		fmt.Fprintf(w, "Drew #%d (u=%.6f)\n", a.Entry()+1, a.Draw())
	}
	fmt.Fprintln(w)
}

// writeTraceSummary prints aggregate statistics of a rounds-level trace.
func writeTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "\nTrace summary:")
	fmt.Fprintf(w, "  eating rounds:      %d\n", s.TotalRounds)
	fmt.Fprintf(w, "  max simultaneous:   %d\n", s.MaxSimultaneous)
	fmt.Fprintf(w, "  cursor switches:    %d\n", s.TotalSwitches)
	fmt.Fprintf(w, "  exhaustion order:   %s\n", strings.Join(s.ExhaustionOrder, ", "))
	fmt.Fprintf(w, "  lottery steps:      %d\n", s.TotalSteps)
	fmt.Fprintf(w, "  weight range:       [%.6f, %.6f]\n", s.MinWeight, s.MaxWeight)
}
