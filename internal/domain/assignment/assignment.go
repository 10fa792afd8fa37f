package assignment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusReassigned Status = "reassigned"
	StatusCompleted  Status = "completed"
)

var validTransitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusRejected, StatusReassigned},
	StatusAccepted:   {StatusReassigned, StatusCompleted},
	StatusRejected:   {},
	StatusCompleted:  {},
	StatusReassigned: {},
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsActive reports whether an assignment in this status still binds the lead
// to an agent. At most one active assignment may exist per lead.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusAccepted
}

// ActiveStatuses is the status set used for active-assignment lookups.
var ActiveStatuses = []Status{StatusPending, StatusAccepted}

type Type string

const (
	TypeAutomatic    Type = "automatic"
	TypeManual       Type = "manual"
	TypeReassignment Type = "reassignment"
)

type Outcome string

const (
	OutcomeConverted Outcome = "converted"
	OutcomeLost      Outcome = "lost"
	OutcomePending   Outcome = "pending"
	OutcomeCancelled Outcome = "cancelled"
)

// Assignment is the durable record of a lead being routed to an agent.
// Rows are never deleted: a reassignment closes the old row with
// StatusReassigned and opens a new one pointing back via PreviousAgentID.
type Assignment struct {
	ID              uuid.UUID  `json:"id"`
	LeadID          uuid.UUID  `json:"lead_id"`
	AgentID         uuid.UUID  `json:"agent_id"`
	Status          Status     `json:"status"`
	Type            Type       `json:"type"`
	PreviousAgentID *uuid.UUID `json:"previous_agent_id,omitempty"`

	Reason             string `json:"reason,omitempty"`
	Notes              string `json:"notes,omitempty"`
	ReassignmentReason string `json:"reassignment_reason,omitempty"`

	// Snapshot of the agent's load at selection time. Never recomputed.
	WorkloadAtAssignment int `json:"workload_at_assignment"`
	CapacityAtAssignment int `json:"capacity_at_assignment"`

	SkillMatchScore *float64 `json:"skill_match_score,omitempty"`
	Priority        int      `json:"priority"`

	Outcome  *Outcome       `json:"outcome,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	AssignedAt   time.Time  `json:"assigned_at"`
	ReassignedAt *time.Time `json:"reassigned_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// New creates a pending assignment with the given type, snapshotting the
// agent's workload and capacity.
func New(leadID, agentID uuid.UUID, t Type, priority, workload, capacity int) Assignment {
	now := time.Now().UTC()
	return Assignment{
		ID:                   uuid.New(),
		LeadID:               leadID,
		AgentID:              agentID,
		Status:               StatusPending,
		Type:                 t,
		Priority:             priority,
		WorkloadAtAssignment: workload,
		CapacityAtAssignment: capacity,
		Metadata:             map[string]any{},
		AssignedAt:           now,
		UpdatedAt:            now,
	}
}

type ListFilters struct {
	LeadID  *uuid.UUID
	AgentID *uuid.UUID
	Status  *Status
	Limit   int
}

// Stats is the fleet-wide aggregate exposed to dashboards. Individual
// metrics degrade to zero on empty input rather than failing the whole call.
type Stats struct {
	TotalAssignments      int64              `json:"total_assignments"`
	SuccessfulAssignments int64              `json:"successful_assignments"`
	FailedAssignments     int64              `json:"failed_assignments"`
	AverageAssignmentTime float64            `json:"average_assignment_time_minutes"`
	WorkloadBalanceScore  float64            `json:"workload_balance_score"`
	SkillMatchScore       float64            `json:"skill_match_score"`
	AgentUtilization      map[string]float64 `json:"agent_utilization"`
}
