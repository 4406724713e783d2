package alloc

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ProfileSpec is the on-disk form of a preference profile.
// Loaded from YAML via LoadProfileSpec(path).
type ProfileSpec struct {
	Version                 string      `yaml:"version"`
	Seed                    *int64      `yaml:"seed,omitempty"`
	Epsilon                 *float64    `yaml:"epsilon,omitempty"`
	ReconstructionTolerance *float64    `yaml:"reconstruction_tolerance,omitempty"`
	MaxParticipants         *int        `yaml:"max_participants,omitempty"`
	Items                   []ItemSpec  `yaml:"items"`
	Agents                  []AgentSpec `yaml:"agents"`
}

// ItemSpec declares one item. Label defaults to ID.
type ItemSpec struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label,omitempty"`
}

// AgentSpec declares one agent's ranking, best first, either by item ID or by
// 1-based item number in the order items are declared ("3,1,2" style).
type AgentSpec struct {
	ID        string   `yaml:"id"`
	Ranking   []string `yaml:"ranking,omitempty"`
	Positions []int    `yaml:"positions,omitempty"`
}

var validSpecVersions = map[string]bool{"": true, "1": true}

// LoadProfileSpec reads and parses a YAML profile file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadProfileSpec(path string) (*ProfileSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile spec: %w", err)
	}
	return ParseProfileSpec(data)
}

// ParseProfileSpec parses YAML profile data with strict field checking.
func ParseProfileSpec(data []byte) (*ProfileSpec, error) {
	var spec ProfileSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing profile spec: %w", err)
	}
	return &spec, nil
}

// Validate checks the file-level shape. Ranking contents are checked by
// NewPreferenceProfile when the spec is built.
func (s *ProfileSpec) Validate() error {
	if !validSpecVersions[s.Version] {
		return fmt.Errorf("unknown profile version %q; valid: 1", s.Version)
	}
	if s.Epsilon != nil {
		if math.IsNaN(*s.Epsilon) || math.IsInf(*s.Epsilon, 0) || *s.Epsilon <= 0 {
			return fmt.Errorf("epsilon must be a finite positive number, got %v", *s.Epsilon)
		}
	}
	if s.ReconstructionTolerance != nil {
		if math.IsNaN(*s.ReconstructionTolerance) || math.IsInf(*s.ReconstructionTolerance, 0) || *s.ReconstructionTolerance <= 0 {
			return fmt.Errorf("reconstruction_tolerance must be a finite positive number, got %v", *s.ReconstructionTolerance)
		}
	}
	if s.MaxParticipants != nil && *s.MaxParticipants < 1 {
		return fmt.Errorf("max_participants must be at least 1, got %d", *s.MaxParticipants)
	}
	for i, a := range s.Agents {
		if err := validateAgentSpec(&a, i, len(s.Items)); err != nil {
			return err
		}
	}
	return nil
}

func validateAgentSpec(a *AgentSpec, idx, numItems int) error {
	prefix := fmt.Sprintf("agents[%d]", idx)
	if a.ID != "" {
		prefix = fmt.Sprintf("agents[%d] (%s)", idx, a.ID)
	}
	hasRanking, hasPositions := len(a.Ranking) > 0, len(a.Positions) > 0
	if hasRanking == hasPositions {
		return fmt.Errorf("%s: exactly one of ranking or positions is required", prefix)
	}
	if !hasPositions {
		return nil
	}
	if len(a.Positions) != numItems {
		return fmt.Errorf("%s: expected %d positions, got %d", prefix, numItems, len(a.Positions))
	}
	seen := make([]bool, numItems+1)
	for _, pos := range a.Positions {
		if pos < 1 || pos > numItems || seen[pos] {
			return fmt.Errorf("%s: positions must be a permutation of 1..%d, got %v", prefix, numItems, a.Positions)
		}
		seen[pos] = true
	}
	return nil
}

// Config overlays the file's numerical settings on base. Setting epsilon
// without reconstruction_tolerance rescales the tolerance with it.
func (s *ProfileSpec) Config(base Config) Config {
	cfg := base
	if s.Epsilon != nil {
		cfg.Epsilon = *s.Epsilon
		cfg.ReconstructionTolerance = reconstructionFactor * *s.Epsilon
	}
	if s.ReconstructionTolerance != nil {
		cfg.ReconstructionTolerance = *s.ReconstructionTolerance
	}
	if s.MaxParticipants != nil {
		cfg.MaxParticipants = *s.MaxParticipants
	}
	return cfg
}

// Build validates the spec and converts it into a PreferenceProfile.
func (s *ProfileSpec) Build(cfg Config) (*PreferenceProfile, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	items := make([]Item, len(s.Items))
	for j, it := range s.Items {
		items[j] = Item{ID: ItemID(it.ID), Label: it.Label}
	}
	rankings := make([]AgentRanking, len(s.Agents))
	for i, a := range s.Agents {
		r := AgentRanking{Agent: AgentID(a.ID)}
		if len(a.Positions) > 0 {
			r.Ranking = make([]ItemID, len(a.Positions))
			for k, pos := range a.Positions {
				r.Ranking[k] = items[pos-1].ID
			}
		} else {
			r.Ranking = make([]ItemID, len(a.Ranking))
			for k, id := range a.Ranking {
				r.Ranking[k] = ItemID(id)
			}
		}
		rankings[i] = r
	}
	return NewPreferenceProfile(items, rankings, cfg)
}
