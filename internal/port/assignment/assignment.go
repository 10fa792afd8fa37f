package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	domainassign "github.com/brightdoor/leadrouter/internal/domain/assignment"
)

var (
	ErrNotFound           = errors.New("assignment not found")
	ErrNoActiveAssignment = errors.New("no active assignment for lead")
)

// Repository is the durable Assignment Store. Rows are append-mostly:
// Create inserts, UpdateStatus/MarkReassigned mutate a named row in place,
// nothing is ever deleted.
type Repository interface {
	Create(ctx context.Context, a domainassign.Assignment) (domainassign.Assignment, error)
	GetByID(ctx context.Context, id uuid.UUID) (domainassign.Assignment, error)
	List(ctx context.Context, filters domainassign.ListFilters) ([]domainassign.Assignment, error)

	// FindActiveByLead returns the single assignment for the lead with status
	// pending or accepted. ErrNoActiveAssignment if there is none.
	FindActiveByLead(ctx context.Context, leadID uuid.UUID) (domainassign.Assignment, error)

	// UpdateStatus overwrites status and notes on the named row, stamping
	// updated_at, and returns the updated row. ErrNotFound if absent.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domainassign.Status, notes string) (domainassign.Assignment, error)

	// MarkReassigned closes an active row: status becomes reassigned and
	// reassigned_at / reassignment_reason are stamped.
	MarkReassigned(ctx context.Context, id uuid.UUID, reason string, at time.Time) error

	// ListByLead returns every assignment for the lead, assigned_at descending.
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]domainassign.Assignment, error)

	// ListByAgent returns up to limit assignments for the agent, assigned_at
	// descending.
	ListByAgent(ctx context.Context, agentID uuid.UUID, limit int) ([]domainassign.Assignment, error)

	CountByStatus(ctx context.Context, status domainassign.Status) (int64, error)
	CountAll(ctx context.Context) (int64, error)

	// AverageResolutionMinutes is the mean of (updated_at - assigned_at) in
	// minutes over rows where updated_at is after assigned_at. Zero when no
	// row qualifies.
	AverageResolutionMinutes(ctx context.Context) (float64, error)

	// RecentSkillScores returns the skill-match scores of the most recent
	// `limit` assignments that carry one, newest first.
	RecentSkillScores(ctx context.Context, limit int) ([]float64, error)
}
