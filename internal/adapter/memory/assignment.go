package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainassign "github.com/brightdoor/leadrouter/internal/domain/assignment"
	portassign "github.com/brightdoor/leadrouter/internal/port/assignment"
)

var _ portassign.Repository = (*AssignmentStore)(nil)

// AssignmentStore is an in-memory Assignment Store used by tests and
// single-node development. Semantics mirror the Postgres adapter.
type AssignmentStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]domainassign.Assignment
}

func NewAssignmentStore() *AssignmentStore {
	return &AssignmentStore{byID: make(map[uuid.UUID]domainassign.Assignment)}
}

func (s *AssignmentStore) Create(_ context.Context, a domainassign.Assignment) (domainassign.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[a.ID] = a
	return a, nil
}

func (s *AssignmentStore) GetByID(_ context.Context, id uuid.UUID) (domainassign.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return domainassign.Assignment{}, portassign.ErrNotFound
	}
	return a, nil
}

func (s *AssignmentStore) List(_ context.Context, filters domainassign.ListFilters) ([]domainassign.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domainassign.Assignment
	for _, a := range s.byID {
		if filters.LeadID != nil && a.LeadID != *filters.LeadID {
			continue
		}
		if filters.AgentID != nil && a.AgentID != *filters.AgentID {
			continue
		}
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		out = append(out, a)
	}
	sortNewestFirst(out)
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (s *AssignmentStore) FindActiveByLead(_ context.Context, leadID uuid.UUID) (domainassign.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.byID {
		if a.LeadID == leadID && a.Status.IsActive() {
			return a, nil
		}
	}
	return domainassign.Assignment{}, portassign.ErrNoActiveAssignment
}

func (s *AssignmentStore) UpdateStatus(_ context.Context, id uuid.UUID, status domainassign.Status, notes string) (domainassign.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return domainassign.Assignment{}, portassign.ErrNotFound
	}
	a.Status = status
	a.Notes = notes
	a.UpdatedAt = time.Now().UTC()
	s.byID[id] = a
	return a, nil
}

func (s *AssignmentStore) MarkReassigned(_ context.Context, id uuid.UUID, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return portassign.ErrNotFound
	}
	a.Status = domainassign.StatusReassigned
	a.ReassignmentReason = reason
	a.ReassignedAt = &at
	a.UpdatedAt = at
	s.byID[id] = a
	return nil
}

func (s *AssignmentStore) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domainassign.Assignment, error) {
	return s.List(ctx, domainassign.ListFilters{LeadID: &leadID})
}

func (s *AssignmentStore) ListByAgent(ctx context.Context, agentID uuid.UUID, limit int) ([]domainassign.Assignment, error) {
	return s.List(ctx, domainassign.ListFilters{AgentID: &agentID, Limit: limit})
}

func (s *AssignmentStore) CountByStatus(_ context.Context, status domainassign.Status) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, a := range s.byID {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *AssignmentStore) CountAll(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

func (s *AssignmentStore) AverageResolutionMinutes(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum float64
	var n int
	for _, a := range s.byID {
		if a.UpdatedAt.After(a.AssignedAt) {
			sum += a.UpdatedAt.Sub(a.AssignedAt).Minutes()
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

func (s *AssignmentStore) RecentSkillScores(_ context.Context, limit int) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []domainassign.Assignment
	for _, a := range s.byID {
		if a.SkillMatchScore != nil {
			scored = append(scored, a)
		}
	}
	sortNewestFirst(scored)
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	out := make([]float64, len(scored))
	for i, a := range scored {
		out[i] = *a.SkillMatchScore
	}
	return out, nil
}

// sortNewestFirst orders by assigned_at descending, ID as tie-breaker so
// rows created in the same instant still sort deterministically.
func sortNewestFirst(as []domainassign.Assignment) {
	sort.Slice(as, func(i, j int) bool {
		if !as[i].AssignedAt.Equal(as[j].AssignedAt) {
			return as[i].AssignedAt.After(as[j].AssignedAt)
		}
		return as[i].ID.String() > as[j].ID.String()
	})
}
