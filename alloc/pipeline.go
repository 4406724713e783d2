package alloc

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/fairshare/alloc/trace"
)

// Outcome bundles every artifact of one pipeline invocation. The matrix is the
// announced probabilities, the lottery is the audit trail, the assignment is
// the realized draw.
type Outcome struct {
	Matrix     *AllocationMatrix
	Lottery    *Lottery
	Assignment *FinalAssignment
}

// Run executes profile → eating process → decomposition → draw.
// src is consumed exactly once. tr may be nil.
func Run(p *PreferenceProfile, cfg Config, src RandomSource, tr *trace.AllocationTrace) (*Outcome, error) {
	m, err := SimulateTraced(p, cfg, tr)
	if err != nil {
		return nil, err
	}
	l, err := DecomposeTraced(m, cfg, tr)
	if err != nil {
		return nil, err
	}
	a, err := Sample(l, src)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("drew entry %d of %d (u=%.6f)", a.Entry()+1, l.Len(), a.Draw())
	return &Outcome{Matrix: m, Lottery: l, Assignment: a}, nil
}
