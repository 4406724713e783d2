// Package trace provides audit-trail recording for the allocation pipeline.
// It has no dependencies on alloc/ and stores pure data types.
package trace

// ItemDemand captures how many agents were eating one item during a round.
type ItemDemand struct {
	Item      string
	Eaters    int
	Remaining float64 // supply left at the start of the round
}

// RoundRecord captures one interval of the eating process between two events.
type RoundRecord struct {
	Round     int
	Start     float64 // elapsed eating time at the start of the round
	Duration  float64
	Demand    []ItemDemand // items with at least one eater, in item order
	Exhausted []string     // items exhausted together at the end of the round
	Switches  int          // agents whose target moved as a result
}

// Pairing is one agent→item edge of a recorded permutation.
type Pairing struct {
	Agent string
	Item  string
}

// StepRecord captures one Birkhoff–von Neumann extraction step.
type StepRecord struct {
	Step        int
	Weight      float64
	Bottleneck  Pairing   // the entry that bounded Weight
	SupportSize int       // edges in the support graph before extraction
	Pairings    []Pairing // the permutation, in agent order
}
