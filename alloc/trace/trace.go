package trace

// TraceLevel controls the verbosity of pipeline tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelRounds captures every eating round and decomposition step.
	TraceLevelRounds TraceLevel = "rounds"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelRounds: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// AllocationTrace collects records during one pipeline invocation.
// Not safe for concurrent use; give each invocation its own trace.
type AllocationTrace struct {
	Config TraceConfig
	Rounds []RoundRecord
	Steps  []StepRecord
}

// NewAllocationTrace creates an AllocationTrace ready for recording.
func NewAllocationTrace(config TraceConfig) *AllocationTrace {
	return &AllocationTrace{
		Config: config,
		Rounds: make([]RoundRecord, 0),
		Steps:  make([]StepRecord, 0),
	}
}

// Enabled reports whether records should be collected. Safe on a nil trace.
func (at *AllocationTrace) Enabled() bool {
	return at != nil && at.Config.Level == TraceLevelRounds
}

// RecordRound appends an eating round record.
func (at *AllocationTrace) RecordRound(record RoundRecord) {
	at.Rounds = append(at.Rounds, record)
}

// RecordStep appends a decomposition step record.
func (at *AllocationTrace) RecordStep(record StepRecord) {
	at.Steps = append(at.Steps, record)
}
