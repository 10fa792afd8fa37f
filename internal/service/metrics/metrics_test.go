package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightdoor/leadrouter/internal/adapter/memory"
	domainagent "github.com/brightdoor/leadrouter/internal/domain/agent"
	domainassign "github.com/brightdoor/leadrouter/internal/domain/assignment"
	"github.com/brightdoor/leadrouter/internal/service/metrics"
)

func agent(workload, capacity int) domainagent.Agent {
	return domainagent.Agent{
		ID:              uuid.New(),
		CurrentWorkload: workload,
		MaxCapacity:     capacity,
		Availability:    domainagent.Available,
	}
}

func seedAssignment(t *testing.T, store *memory.AssignmentStore, status domainassign.Status, skillScore *float64) domainassign.Assignment {
	t.Helper()
	a := domainassign.New(uuid.New(), uuid.New(), domainassign.TypeAutomatic, 1, 2, 10)
	a.Status = status
	a.SkillMatchScore = skillScore
	created, err := store.Create(context.Background(), a)
	require.NoError(t, err)
	return created
}

func TestGetStats_Empty(t *testing.T) {
	svc := metrics.NewService(memory.NewAssignmentStore(), memory.NewDirectory())

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalAssignments)
	assert.Zero(t, stats.SuccessfulAssignments)
	assert.Zero(t, stats.FailedAssignments)
	assert.Zero(t, stats.AverageAssignmentTime)
	assert.Zero(t, stats.SkillMatchScore)
	// No fleet is trivially balanced — and never NaN.
	assert.Equal(t, 100.0, stats.WorkloadBalanceScore)
	assert.Empty(t, stats.AgentUtilization)
}

func TestGetStats_Counts(t *testing.T) {
	store := memory.NewAssignmentStore()
	seedAssignment(t, store, domainassign.StatusAccepted, nil)
	seedAssignment(t, store, domainassign.StatusAccepted, nil)
	seedAssignment(t, store, domainassign.StatusRejected, nil)
	seedAssignment(t, store, domainassign.StatusPending, nil)

	svc := metrics.NewService(store, memory.NewDirectory())
	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 4, stats.TotalAssignments)
	assert.EqualValues(t, 2, stats.SuccessfulAssignments)
	assert.EqualValues(t, 1, stats.FailedAssignments)
}

func TestGetStats_AverageAssignmentTime(t *testing.T) {
	store := memory.NewAssignmentStore()

	// Two resolved rows (10 and 20 minutes), one untouched row that must be
	// excluded rather than counted as zero.
	for _, mins := range []int{10, 20} {
		a := domainassign.New(uuid.New(), uuid.New(), domainassign.TypeAutomatic, 1, 0, 5)
		a.AssignedAt = time.Now().UTC().Add(-time.Duration(mins) * time.Minute)
		a.UpdatedAt = time.Now().UTC()
		_, err := store.Create(context.Background(), a)
		require.NoError(t, err)
	}
	seedAssignment(t, store, domainassign.StatusPending, nil)

	svc := metrics.NewService(store, memory.NewDirectory())
	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 15, stats.AverageAssignmentTime, 0.1)
}

func TestGetStats_SkillMatchWindow(t *testing.T) {
	store := memory.NewAssignmentStore()
	for _, v := range []float64{0.5, 0.7, 0.9} {
		score := v
		seedAssignment(t, store, domainassign.StatusAccepted, &score)
	}
	seedAssignment(t, store, domainassign.StatusAccepted, nil) // no score: excluded

	svc := metrics.NewService(store, memory.NewDirectory())
	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 0.7, stats.SkillMatchScore, 1e-9)
}

func TestGetStats_BalanceAndUtilization(t *testing.T) {
	a := agent(5, 10)
	b := agent(5, 10)
	zero := agent(0, 0) // must not poison the ratios
	dir := memory.NewDirectory(a, b, zero)

	svc := metrics.NewService(memory.NewAssignmentStore(), dir)
	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	// Identical ratios → zero variance → perfect balance.
	assert.Equal(t, 100.0, stats.WorkloadBalanceScore)
	assert.InDelta(t, 50, stats.AgentUtilization[a.ID.String()], 1e-9)
	assert.InDelta(t, 50, stats.AgentUtilization[b.ID.String()], 1e-9)
	_, hasZero := stats.AgentUtilization[zero.ID.String()]
	assert.False(t, hasZero)
}

func TestGetStats_UnevenFleetScoresLower(t *testing.T) {
	dir := memory.NewDirectory(agent(0, 10), agent(10, 10))

	svc := metrics.NewService(memory.NewAssignmentStore(), dir)
	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	// Ratios 0 and 1 → variance 0.25 → score 75.
	assert.InDelta(t, 75, stats.WorkloadBalanceScore, 1e-9)
}
