package agent

import (
	"time"

	"github.com/google/uuid"
)

type Availability string

const (
	Available Availability = "available"
	Busy      Availability = "busy"
	Offline   Availability = "offline"
)

// Agent is the directory's view of a real-estate agent. The engine never
// writes agents — the Agent Directory is an external collaborator, and
// CurrentWorkload/MaxCapacity are best-effort snapshots at read time.
// An over-capacity snapshot (workload past max) is tolerated, not rejected.
type Agent struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	CurrentWorkload int          `json:"current_workload"`
	MaxCapacity     int          `json:"max_capacity"`
	Skills          []string     `json:"skills"`
	Availability    Availability `json:"availability"`
	LastActive      time.Time    `json:"last_active"`
}

func (a *Agent) IsAvailable() bool {
	return a.Availability == Available
}

// HasCapacity reports whether the agent can take another lead.
func (a *Agent) HasCapacity() bool {
	return a.CurrentWorkload < a.MaxCapacity
}

func (a *Agent) HasSkill(skill string) bool {
	for _, s := range a.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

type ListFilters struct {
	Availability *Availability
	Skill        *string
}
