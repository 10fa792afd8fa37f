package metrics

import (
	"context"
	"fmt"
	"log/slog"

	domainagent "github.com/brightdoor/leadrouter/internal/domain/agent"
	domainassign "github.com/brightdoor/leadrouter/internal/domain/assignment"
	portassign "github.com/brightdoor/leadrouter/internal/port/assignment"
	portdirectory "github.com/brightdoor/leadrouter/internal/port/directory"
)

// SkillScoreWindow bounds the aggregate skill-match average to the most
// recent assignments so the figure tracks current routing quality.
const SkillScoreWindow = 100

// Service computes fleet statistics from the assignment store and the live
// agent directory. Individual metrics degrade to zero on empty input or
// computation failure — dashboards keep rendering on partial data. Only a
// fully unreachable store fails the call.
type Service struct {
	repo      portassign.Repository
	directory portdirectory.AgentDirectory
}

func NewService(repo portassign.Repository, directory portdirectory.AgentDirectory) *Service {
	return &Service{repo: repo, directory: directory}
}

func (s *Service) GetStats(ctx context.Context) (domainassign.Stats, error) {
	stats := domainassign.Stats{AgentUtilization: map[string]float64{}}

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return domainassign.Stats{}, fmt.Errorf("count assignments: %w", err)
	}
	stats.TotalAssignments = total

	stats.SuccessfulAssignments = s.countOrZero(ctx, domainassign.StatusAccepted)
	stats.FailedAssignments = s.countOrZero(ctx, domainassign.StatusRejected)

	avg, err := s.repo.AverageResolutionMinutes(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "average assignment time unavailable", "error", err)
		avg = 0
	}
	stats.AverageAssignmentTime = avg

	scores, err := s.repo.RecentSkillScores(ctx, SkillScoreWindow)
	if err != nil {
		slog.ErrorContext(ctx, "recent skill scores unavailable", "error", err)
	}
	stats.SkillMatchScore = mean(scores)

	agents, err := s.directory.List(ctx, domainagent.ListFilters{})
	if err != nil {
		// Directory down: utilization and balance degrade, counts survive.
		slog.ErrorContext(ctx, "agent directory unavailable for stats", "error", err)
		stats.WorkloadBalanceScore = 0
		return stats, nil
	}

	stats.WorkloadBalanceScore = balanceScore(agents)
	for _, a := range agents {
		if a.MaxCapacity <= 0 {
			continue
		}
		stats.AgentUtilization[a.ID.String()] = float64(a.CurrentWorkload) / float64(a.MaxCapacity) * 100
	}

	return stats, nil
}

// balanceScore maps the variance of per-agent load ratios onto [0, 100]:
// 100 is a perfectly level fleet. Zero-capacity agents carry no ratio. An
// empty fleet is trivially balanced.
func balanceScore(agents []domainagent.Agent) float64 {
	var ratios []float64
	for _, a := range agents {
		if a.MaxCapacity <= 0 {
			continue
		}
		ratios = append(ratios, float64(a.CurrentWorkload)/float64(a.MaxCapacity))
	}
	if len(ratios) == 0 {
		return 100
	}

	m := mean(ratios)
	var variance float64
	for _, r := range ratios {
		variance += (r - m) * (r - m)
	}
	variance /= float64(len(ratios))

	score := 100 - variance*100
	if score < 0 {
		return 0
	}
	return score
}

func (s *Service) countOrZero(ctx context.Context, status domainassign.Status) int64 {
	n, err := s.repo.CountByStatus(ctx, status)
	if err != nil {
		slog.ErrorContext(ctx, "status count unavailable", "status", status, "error", err)
		return 0
	}
	return n
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
