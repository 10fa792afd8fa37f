package allocator

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainagent "github.com/brightdoor/leadrouter/internal/domain/agent"
	domainassign "github.com/brightdoor/leadrouter/internal/domain/assignment"
	"github.com/brightdoor/leadrouter/internal/domain/event"
	"github.com/brightdoor/leadrouter/internal/domain/scoring"
	portassign "github.com/brightdoor/leadrouter/internal/port/assignment"
	portdirectory "github.com/brightdoor/leadrouter/internal/port/directory"
	portbus "github.com/brightdoor/leadrouter/internal/port/eventbus"
	portlocker "github.com/brightdoor/leadrouter/internal/port/locker"
)

// Failure reasons returned in Result for business outcomes. These are part of
// the API contract — callers branch on the exact strings.
const (
	ReasonNoAvailableAgents    = "No available agents"
	ReasonNoSuitableAgent      = "No suitable agent found"
	ReasonAgentNotAvailable    = "Agent is not available"
	ReasonAgentAtCapacity      = "Agent is at maximum capacity"
	ReasonNoCurrentAssignment  = "No current assignment found"
	ReasonNewAgentNotAvailable = "New agent is not available"
	ReasonLeadAlreadyAssigned  = "Lead already has an active assignment"
)

// ErrInvalidTransition is returned by UpdateStatus when the requested status
// is not reachable from the assignment's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// DefaultHistoryLimit caps GetAgentHistory when the caller does not.
const DefaultHistoryLimit = 50

// Result is the outcome of an assignment operation. Business failures (no
// agent, at capacity, nothing to reassign) come back as Success=false with a
// Reason — never as an error. Errors are reserved for infrastructure
// failures: store unreachable, directory timeout.
type Result struct {
	Success         bool                     `json:"success"`
	Reason          string                   `json:"reason,omitempty"`
	Assignment      *domainassign.Assignment `json:"assignment,omitempty"`
	WorkloadBalance float64                  `json:"workload_balance,omitempty"`
	SkillMatchScore float64                  `json:"skill_match_score,omitempty"`
}

func failure(reason string) Result {
	return Result{Success: false, Reason: reason}
}

// Service routes leads to agents and owns the assignment lifecycle.
// Every mutating lead operation runs under a per-lead advisory lock: the
// one-active-assignment-per-lead invariant is a read-then-write sequence and
// is not safe against concurrent requests for the same lead without it.
type Service struct {
	directory portdirectory.AgentDirectory
	repo      portassign.Repository
	locker    portlocker.AdvisoryLocker
	bus       portbus.EventBus
}

func NewService(
	directory portdirectory.AgentDirectory,
	repo portassign.Repository,
	locker portlocker.AdvisoryLocker,
	bus portbus.EventBus,
) *Service {
	return &Service{directory: directory, repo: repo, locker: locker, bus: bus}
}

// AssignAutomatic picks the best-scoring available agent for the lead and
// creates a pending assignment. Ties on total score break by lowest current
// workload, then agent ID — the selection is fully deterministic for a given
// directory snapshot.
func (s *Service) AssignAutomatic(ctx context.Context, leadID uuid.UUID, priority int, requiredSkills []string) (Result, error) {
	var res Result
	err := s.locker.WithLock(ctx, leadKey(leadID), func(ctx context.Context) error {
		if r, done, err := s.guardActive(ctx, leadID); done || err != nil {
			res = r
			return err
		}

		agents, err := s.directory.ListAvailable(ctx)
		if err != nil {
			return fmt.Errorf("list available agents: %w", err)
		}
		if len(agents) == 0 {
			res = failure(ReasonNoAvailableAgents)
			return nil
		}

		bestIdx := -1
		var best scoring.Breakdown
		for i, a := range agents {
			b, err := scoring.Score(a, requiredSkills)
			if err != nil {
				// Zero-capacity agents are unscoreable, not fatal.
				if errors.Is(err, scoring.ErrZeroCapacity) {
					continue
				}
				return fmt.Errorf("score agent %s: %w", a.ID, err)
			}
			if bestIdx < 0 || better(b, agents[i], best, agents[bestIdx]) {
				bestIdx, best = i, b
			}
		}
		if bestIdx < 0 {
			res = failure(ReasonNoSuitableAgent)
			return nil
		}

		chosen := agents[bestIdx]
		a := domainassign.New(leadID, chosen.ID, domainassign.TypeAutomatic, priority,
			chosen.CurrentWorkload, chosen.MaxCapacity)
		skill := best.SkillMatch
		a.SkillMatchScore = &skill

		created, err := s.repo.Create(ctx, a)
		if err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}

		s.publish(ctx, event.TypeAssignmentCreated, created.ID)
		res = Result{
			Success:         true,
			Assignment:      &created,
			WorkloadBalance: best.WorkloadBalance,
			SkillMatchScore: best.SkillMatch,
		}
		return nil
	})
	return res, err
}

// AssignManual assigns the lead to a named agent, bypassing scoring. The
// agent must be available and below capacity.
func (s *Service) AssignManual(ctx context.Context, leadID, agentID uuid.UUID, reason string) (Result, error) {
	var res Result
	err := s.locker.WithLock(ctx, leadKey(leadID), func(ctx context.Context) error {
		if r, done, err := s.guardActive(ctx, leadID); done || err != nil {
			res = r
			return err
		}

		agent, err := s.directory.Get(ctx, agentID)
		if err != nil {
			return fmt.Errorf("get agent %s: %w", agentID, err)
		}
		if !agent.IsAvailable() {
			res = failure(ReasonAgentNotAvailable)
			return nil
		}
		if !agent.HasCapacity() {
			res = failure(ReasonAgentAtCapacity)
			return nil
		}

		a := domainassign.New(leadID, agent.ID, domainassign.TypeManual, 1,
			agent.CurrentWorkload, agent.MaxCapacity)
		a.Reason = reason

		created, err := s.repo.Create(ctx, a)
		if err != nil {
			return fmt.Errorf("create manual assignment: %w", err)
		}

		s.publish(ctx, event.TypeAssignmentCreated, created.ID)
		res = Result{Success: true, Assignment: &created}
		return nil
	})
	return res, err
}

// Reassign moves the lead's active assignment to a new agent: the old row is
// closed with status reassigned, a new pending row is created pointing back
// at the superseded agent.
func (s *Service) Reassign(ctx context.Context, leadID, newAgentID uuid.UUID, reason string) (Result, error) {
	var res Result
	err := s.locker.WithLock(ctx, leadKey(leadID), func(ctx context.Context) error {
		current, err := s.repo.FindActiveByLead(ctx, leadID)
		if err != nil {
			if errors.Is(err, portassign.ErrNoActiveAssignment) {
				res = failure(ReasonNoCurrentAssignment)
				return nil
			}
			return fmt.Errorf("find active assignment: %w", err)
		}

		agent, err := s.directory.Get(ctx, newAgentID)
		if err != nil {
			return fmt.Errorf("get agent %s: %w", newAgentID, err)
		}
		if !agent.IsAvailable() || !agent.HasCapacity() {
			res = failure(ReasonNewAgentNotAvailable)
			return nil
		}

		now := time.Now().UTC()
		if err := s.repo.MarkReassigned(ctx, current.ID, reason, now); err != nil {
			return fmt.Errorf("mark assignment %s reassigned: %w", current.ID, err)
		}

		next := domainassign.New(leadID, agent.ID, domainassign.TypeReassignment,
			current.Priority, agent.CurrentWorkload, agent.MaxCapacity)
		next.PreviousAgentID = &current.AgentID
		next.Reason = reason

		created, err := s.repo.Create(ctx, next)
		if err != nil {
			return fmt.Errorf("create reassignment: %w", err)
		}

		s.publish(ctx, event.TypeAssignmentReassigned, created.ID)
		res = Result{Success: true, Assignment: &created}
		return nil
	})
	return res, err
}

// UpdateStatus moves the named assignment through the lifecycle state
// machine, overwriting notes and stamping updated_at.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domainassign.Status, notes string) (domainassign.Assignment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainassign.Assignment{}, fmt.Errorf("get assignment: %w", err)
	}
	if !current.Status.CanTransitionTo(status) {
		return domainassign.Assignment{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status, notes)
	if err != nil {
		return domainassign.Assignment{}, fmt.Errorf("update assignment status: %w", err)
	}

	s.publish(ctx, event.TypeStatusChanged, updated.ID)
	return updated, nil
}

// GetLeadHistory returns the lead's full assignment trail, newest first.
func (s *Service) GetLeadHistory(ctx context.Context, leadID uuid.UUID) ([]domainassign.Assignment, error) {
	history, err := s.repo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("lead history: %w", err)
	}
	return history, nil
}

// GetAgentHistory returns up to limit assignments for the agent, newest first.
func (s *Service) GetAgentHistory(ctx context.Context, agentID uuid.UUID, limit int) ([]domainassign.Assignment, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	history, err := s.repo.ListByAgent(ctx, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("agent history: %w", err)
	}
	return history, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domainassign.Assignment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainassign.Assignment{}, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// guardActive fails the operation when the lead already has an active
// assignment. Must run inside the per-lead lock.
func (s *Service) guardActive(ctx context.Context, leadID uuid.UUID) (Result, bool, error) {
	_, err := s.repo.FindActiveByLead(ctx, leadID)
	if err == nil {
		return failure(ReasonLeadAlreadyAssigned), true, nil
	}
	if !errors.Is(err, portassign.ErrNoActiveAssignment) {
		return Result{}, false, fmt.Errorf("check active assignment: %w", err)
	}
	return Result{}, false, nil
}

func (s *Service) publish(ctx context.Context, t event.Type, id uuid.UUID) {
	if err := s.bus.Publish(ctx, event.New(t, id)); err != nil {
		slog.ErrorContext(ctx, "failed to publish assignment event", "type", t, "assignment_id", id, "error", err)
	}
}

// better reports whether the candidate beats the incumbent. Score first,
// then lowest current workload, then agent ID for a stable total order.
func better(cand scoring.Breakdown, candAgent domainagent.Agent, inc scoring.Breakdown, incAgent domainagent.Agent) bool {
	if cand.Total != inc.Total {
		return cand.Total > inc.Total
	}
	if candAgent.CurrentWorkload != incAgent.CurrentWorkload {
		return candAgent.CurrentWorkload < incAgent.CurrentWorkload
	}
	return candAgent.ID.String() < incAgent.ID.String()
}

// leadKey hashes a lead ID to a stable int64 for the advisory locker.
func leadKey(leadID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(leadID[:])
	return int64(h.Sum64())
}
