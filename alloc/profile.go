package alloc

import "fmt"

// AgentID is an opaque participant identifier, stable for the lifetime of a session.
type AgentID string

// ItemID is an opaque identifier of an allocable item.
type ItemID string

// Item is one unit of allocable supply with a display label.
type Item struct {
	ID    ItemID
	Label string
}

// AgentRanking is one agent's strict ranking of every item, best first.
type AgentRanking struct {
	Agent   AgentID
	Ranking []ItemID
}

// PreferenceProfile is a validated, immutable set of strict rankings with
// |agents| == |items|. Agents and items are referenced by index everywhere
// downstream; indices follow construction order.
type PreferenceProfile struct {
	agents   []AgentID
	items    []Item
	agentIdx map[AgentID]int
	itemIdx  map[ItemID]int
	rankings [][]int // rankings[agent] = item indices, best first
}

// NewPreferenceProfile validates the rankings against the item set and returns
// a frozen profile. All failures wrap ErrInvalidProfile; per-agent failures are
// *ProfileError values naming the agent.
func NewPreferenceProfile(items []Item, rankings []AgentRanking, cfg Config) (*PreferenceProfile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 && len(rankings) == 0 {
		return nil, profileErrorf("", "profile is empty")
	}
	if len(items) == 0 {
		return nil, profileErrorf("", "no items to allocate")
	}
	if len(items) > cfg.MaxParticipants {
		return nil, profileErrorf("", "%d items exceeds the limit of %d", len(items), cfg.MaxParticipants)
	}
	if len(rankings) != len(items) {
		return nil, profileErrorf("", "need %d rankings, got %d", len(items), len(rankings))
	}

	p := &PreferenceProfile{
		agents:   make([]AgentID, len(rankings)),
		items:    make([]Item, len(items)),
		agentIdx: make(map[AgentID]int, len(rankings)),
		itemIdx:  make(map[ItemID]int, len(items)),
		rankings: make([][]int, len(rankings)),
	}
	for j, it := range items {
		if it.ID == "" {
			return nil, profileErrorf("", "item[%d] has an empty id", j)
		}
		if _, dup := p.itemIdx[it.ID]; dup {
			return nil, profileErrorf("", "duplicate item id %q", it.ID)
		}
		if it.Label == "" {
			it.Label = string(it.ID)
		}
		p.items[j] = it
		p.itemIdx[it.ID] = j
	}

	n := len(items)
	for i, r := range rankings {
		if r.Agent == "" {
			return nil, profileErrorf("", "agent[%d] has an empty id", i)
		}
		if _, dup := p.agentIdx[r.Agent]; dup {
			return nil, profileErrorf(r.Agent, "submitted more than one ranking")
		}
		if len(r.Ranking) != n {
			return nil, profileErrorf(r.Agent, "expected %d items, got %d", n, len(r.Ranking))
		}
		seen := make([]bool, n)
		order := make([]int, n)
		for pos, id := range r.Ranking {
			j, ok := p.itemIdx[id]
			if !ok {
				return nil, profileErrorf(r.Agent, "unknown item %q at position %d", id, pos+1)
			}
			if seen[j] {
				return nil, profileErrorf(r.Agent, "item %q ranked more than once", id)
			}
			seen[j] = true
			order[pos] = j
		}
		p.agents[i] = r.Agent
		p.agentIdx[r.Agent] = i
		p.rankings[i] = order
	}
	return p, nil
}

// Size returns n, the number of agents (equal to the number of items).
func (p *PreferenceProfile) Size() int { return len(p.agents) }

// Agents returns the agent identifiers in index order.
func (p *PreferenceProfile) Agents() []AgentID {
	return append([]AgentID(nil), p.agents...)
}

// Items returns the items in index order.
func (p *PreferenceProfile) Items() []Item {
	return append([]Item(nil), p.items...)
}

// Ranking returns the ranking submitted by agent, best first.
func (p *PreferenceProfile) Ranking(agent AgentID) ([]ItemID, error) {
	i, ok := p.agentIdx[agent]
	if !ok {
		return nil, fmt.Errorf("unknown agent %q", agent)
	}
	out := make([]ItemID, len(p.rankings[i]))
	for pos, j := range p.rankings[i] {
		out[pos] = p.items[j].ID
	}
	return out, nil
}

// rankingAt exposes the internal index ranking; callers must not modify it.
func (p *PreferenceProfile) rankingAt(i int) []int { return p.rankings[i] }
