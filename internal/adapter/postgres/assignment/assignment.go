package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainassign "github.com/brightdoor/leadrouter/internal/domain/assignment"
	portassign "github.com/brightdoor/leadrouter/internal/port/assignment"
)

var _ portassign.Repository = (*Repository)(nil)

const columns = `id, lead_id, agent_id, status, type, previous_agent_id,
		reason, notes, reassignment_reason, workload_at_assignment,
		capacity_at_assignment, skill_match_score, priority, outcome,
		metadata_jsonb, assigned_at, reassigned_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, a domainassign.Assignment) (domainassign.Assignment, error) {
	metadataJSON, err := json.Marshal(a.Metadata)
	if err != nil {
		return domainassign.Assignment{}, fmt.Errorf("marshaling metadata: %w", err)
	}

	query := `
		INSERT INTO assignments (` + columns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING ` + columns

	row := r.pool.QueryRow(ctx, query,
		a.ID, a.LeadID, a.AgentID, a.Status, a.Type, a.PreviousAgentID,
		nilIfEmpty(a.Reason), nilIfEmpty(a.Notes), nilIfEmpty(a.ReassignmentReason),
		a.WorkloadAtAssignment, a.CapacityAtAssignment, a.SkillMatchScore,
		a.Priority, a.Outcome, metadataJSON, a.AssignedAt, a.ReassignedAt, a.UpdatedAt,
	)
	created, err := scanAssignment(row)
	if err != nil {
		return domainassign.Assignment{}, fmt.Errorf("inserting assignment: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domainassign.Assignment, error) {
	query := `SELECT ` + columns + ` FROM assignments WHERE id = $1`

	a, err := scanAssignment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainassign.Assignment{}, portassign.ErrNotFound
		}
		return domainassign.Assignment{}, fmt.Errorf("querying assignment: %w", err)
	}
	return a, nil
}

func (r *Repository) List(ctx context.Context, filters domainassign.ListFilters) ([]domainassign.Assignment, error) {
	query := `SELECT ` + columns + ` FROM assignments WHERE 1=1`

	args := []interface{}{}
	argIdx := 1

	if filters.LeadID != nil {
		query += fmt.Sprintf(" AND lead_id = $%d", argIdx)
		args = append(args, *filters.LeadID)
		argIdx++
	}
	if filters.AgentID != nil {
		query += fmt.Sprintf(" AND agent_id = $%d", argIdx)
		args = append(args, *filters.AgentID)
		argIdx++
	}
	if filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(*filters.Status))
		argIdx++
	}

	query += " ORDER BY assigned_at DESC, id DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

func (r *Repository) FindActiveByLead(ctx context.Context, leadID uuid.UUID) (domainassign.Assignment, error) {
	query := `
		SELECT ` + columns + `
		FROM assignments
		WHERE lead_id = $1 AND status IN ('pending', 'accepted')
		ORDER BY assigned_at DESC
		LIMIT 1`

	a, err := scanAssignment(r.pool.QueryRow(ctx, query, leadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainassign.Assignment{}, portassign.ErrNoActiveAssignment
		}
		return domainassign.Assignment{}, fmt.Errorf("querying active assignment: %w", err)
	}
	return a, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domainassign.Status, notes string) (domainassign.Assignment, error) {
	query := `
		UPDATE assignments
		SET status = $2, notes = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + columns

	a, err := scanAssignment(r.pool.QueryRow(ctx, query, id, string(status), nilIfEmpty(notes), time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainassign.Assignment{}, portassign.ErrNotFound
		}
		return domainassign.Assignment{}, fmt.Errorf("updating assignment status: %w", err)
	}
	return a, nil
}

func (r *Repository) MarkReassigned(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	query := `
		UPDATE assignments
		SET status = 'reassigned', reassignment_reason = $2, reassigned_at = $3, updated_at = $3
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, nilIfEmpty(reason), at)
	if err != nil {
		return fmt.Errorf("marking assignment reassigned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return portassign.ErrNotFound
	}
	return nil
}

func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domainassign.Assignment, error) {
	return r.List(ctx, domainassign.ListFilters{LeadID: &leadID})
}

func (r *Repository) ListByAgent(ctx context.Context, agentID uuid.UUID, limit int) ([]domainassign.Assignment, error) {
	return r.List(ctx, domainassign.ListFilters{AgentID: &agentID, Limit: limit})
}

func (r *Repository) CountByStatus(ctx context.Context, status domainassign.Status) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assignments WHERE status = $1`, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting assignments by status: %w", err)
	}
	return n, nil
}

func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assignments`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting assignments: %w", err)
	}
	return n, nil
}

func (r *Repository) AverageResolutionMinutes(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (updated_at - assigned_at)) / 60), 0)
		FROM assignments
		WHERE updated_at > assigned_at`

	var avg float64
	if err := r.pool.QueryRow(ctx, query).Scan(&avg); err != nil {
		return 0, fmt.Errorf("averaging resolution time: %w", err)
	}
	return avg, nil
}

func (r *Repository) RecentSkillScores(ctx context.Context, limit int) ([]float64, error) {
	query := `
		SELECT skill_match_score
		FROM assignments
		WHERE skill_match_score IS NOT NULL
		ORDER BY assigned_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying skill scores: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning skill score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (domainassign.Assignment, error) {
	var a domainassign.Assignment
	var reason, notes, reassignmentReason *string
	var outcome *string
	var metadataBytes []byte

	err := row.Scan(
		&a.ID, &a.LeadID, &a.AgentID, &a.Status, &a.Type, &a.PreviousAgentID,
		&reason, &notes, &reassignmentReason, &a.WorkloadAtAssignment,
		&a.CapacityAtAssignment, &a.SkillMatchScore, &a.Priority, &outcome,
		&metadataBytes, &a.AssignedAt, &a.ReassignedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domainassign.Assignment{}, err
	}

	a.Reason = deref(reason)
	a.Notes = deref(notes)
	a.ReassignmentReason = deref(reassignmentReason)
	if outcome != nil {
		o := domainassign.Outcome(*outcome)
		a.Outcome = &o
	}
	if len(metadataBytes) > 0 {
		if err := json.Unmarshal(metadataBytes, &a.Metadata); err != nil {
			return domainassign.Assignment{}, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	return a, nil
}

func scanAssignments(rows pgx.Rows) ([]domainassign.Assignment, error) {
	var out []domainassign.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
