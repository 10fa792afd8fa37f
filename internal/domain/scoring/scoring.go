package scoring

import (
	"errors"

	domainagent "github.com/brightdoor/leadrouter/internal/domain/agent"
)

// Composite score weights. Workload balance dominates so the fleet stays
// level; skill match breaks the remaining distance.
const (
	WBalance = 0.6
	WSkill   = 0.4
)

// SkillMatchFloor is the score a total non-match still earns. The original
// matcher drew uniformly from [0.5, 1.0]; the deterministic replacement keeps
// the same range so the composite weighting stays calibrated.
const SkillMatchFloor = 0.5

// ErrZeroCapacity marks an agent that cannot be scored: workload balance is
// undefined when max capacity is zero.
var ErrZeroCapacity = errors.New("scoring: agent has zero max capacity")

// Breakdown is the per-agent scoring result.
type Breakdown struct {
	WorkloadBalance float64 `json:"workload_balance"`
	SkillMatch      float64 `json:"skill_match_score"`
	Total           float64 `json:"total_score"`
}

// Score computes the composite suitability of an agent for a lead with the
// given required skill tags. All components and the total are in [0, 1].
func Score(a domainagent.Agent, requiredSkills []string) (Breakdown, error) {
	if a.MaxCapacity <= 0 {
		return Breakdown{}, ErrZeroCapacity
	}

	balance := 1 - float64(a.CurrentWorkload)/float64(a.MaxCapacity)
	// Over-capacity directory snapshots read as a fully loaded agent.
	if balance < 0 {
		balance = 0
	}

	skill := SkillMatch(a.Skills, requiredSkills)

	return Breakdown{
		WorkloadBalance: balance,
		SkillMatch:      skill,
		Total:           WBalance*balance + WSkill*skill,
	}, nil
}

// SkillMatch maps Jaccard similarity between the agent's skills and the
// lead's required tags onto [SkillMatchFloor, 1]. No required tags scores the
// floor, so skill match never discriminates between agents on an untagged lead.
func SkillMatch(agentSkills, requiredSkills []string) float64 {
	if len(requiredSkills) == 0 {
		return SkillMatchFloor
	}

	set := make(map[string]struct{}, len(agentSkills))
	for _, s := range agentSkills {
		set[s] = struct{}{}
	}

	intersection := 0
	required := make(map[string]struct{}, len(requiredSkills))
	for _, s := range requiredSkills {
		if _, dup := required[s]; dup {
			continue
		}
		required[s] = struct{}{}
		if _, ok := set[s]; ok {
			intersection++
		}
	}

	union := len(set) + len(required) - intersection
	if union == 0 {
		return SkillMatchFloor
	}
	jaccard := float64(intersection) / float64(union)
	return SkillMatchFloor + (1-SkillMatchFloor)*jaccard
}
