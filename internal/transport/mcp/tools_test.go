package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightdoor/leadrouter/internal/adapter/memory"
	domainagent "github.com/brightdoor/leadrouter/internal/domain/agent"
	domainassign "github.com/brightdoor/leadrouter/internal/domain/assignment"
	"github.com/brightdoor/leadrouter/internal/domain/event"
	portbus "github.com/brightdoor/leadrouter/internal/port/eventbus"
	"github.com/brightdoor/leadrouter/internal/service/allocator"
	metricssvc "github.com/brightdoor/leadrouter/internal/service/metrics"
)

// ── helpers ───────────────────────────────────────────────────────────────────

type nopBus struct{}

func (nopBus) Publish(context.Context, event.Event) error { return nil }

func (nopBus) Subscribe(context.Context, event.Channel, portbus.Handler) (portbus.Subscription, error) {
	return nopSubscription{}, nil
}

type nopSubscription struct{}

func (nopSubscription) Unsubscribe() {}

func newServices(agents ...domainagent.Agent) (*allocator.Service, *metricssvc.Service) {
	dir := memory.NewDirectory(agents...)
	store := memory.NewAssignmentStore()
	svc := allocator.NewService(dir, store, memory.NewLocker(), nopBus{})
	return svc, metricssvc.NewService(store, dir)
}

func makeReq(args map[string]any) mcpmcp.CallToolRequest {
	var req mcpmcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(r *mcpmcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	b, _ := json.Marshal(r.Content[0])
	var m map[string]interface{}
	json.Unmarshal(b, &m) //nolint:errcheck
	if t, ok := m["text"].(string); ok {
		return t
	}
	return ""
}

func decodeResult(t *testing.T, r *mcpmcp.CallToolResult) allocator.Result {
	t.Helper()
	var res allocator.Result
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &res))
	return res
}

func testAgent(name string, workload, capacity int, skills ...string) domainagent.Agent {
	return domainagent.Agent{
		ID:              uuid.New(),
		Name:            name,
		CurrentWorkload: workload,
		MaxCapacity:     capacity,
		Skills:          skills,
		Availability:    domainagent.Available,
		LastActive:      time.Now().UTC(),
	}
}

// ── assign_lead ───────────────────────────────────────────────────────────────

func TestAssignLeadTool(t *testing.T) {
	t.Run("assigns and returns the result JSON", func(t *testing.T) {
		agent := testAgent("Alice", 0, 5, "luxury")
		svc, _ := newServices(agent)
		h := assignLeadHandler(svc)

		r, err := h(context.Background(), makeReq(map[string]any{
			"lead_id":         uuid.New().String(),
			"priority":        "7",
			"required_skills": "luxury, waterfront",
		}))
		require.NoError(t, err)

		res := decodeResult(t, r)
		assert.True(t, res.Success)
		require.NotNil(t, res.Assignment)
		assert.Equal(t, agent.ID, res.Assignment.AgentID)
		assert.Equal(t, 7, res.Assignment.Priority)
	})

	t.Run("no agents yields success=false", func(t *testing.T) {
		svc, _ := newServices()
		h := assignLeadHandler(svc)

		r, err := h(context.Background(), makeReq(map[string]any{"lead_id": uuid.New().String()}))
		require.NoError(t, err)

		res := decodeResult(t, r)
		assert.False(t, res.Success)
		assert.Equal(t, allocator.ReasonNoAvailableAgents, res.Reason)
	})

	t.Run("invalid lead_id returns error text", func(t *testing.T) {
		svc, _ := newServices()
		h := assignLeadHandler(svc)

		r, err := h(context.Background(), makeReq(map[string]any{"lead_id": "not-a-uuid"}))
		require.NoError(t, err)
		assert.Equal(t, "error: invalid lead_id", resultText(r))
	})

	t.Run("priority out of range returns error text", func(t *testing.T) {
		svc, _ := newServices()
		h := assignLeadHandler(svc)

		r, err := h(context.Background(), makeReq(map[string]any{
			"lead_id":  uuid.New().String(),
			"priority": "11",
		}))
		require.NoError(t, err)
		assert.Contains(t, resultText(r), "priority must be")
	})
}

// ── assign_lead_manual / reassign_lead ────────────────────────────────────────

func TestManualAndReassignTools(t *testing.T) {
	first := testAgent("Alice", 0, 5)
	second := testAgent("Bob", 0, 5)
	svc, _ := newServices(first, second)
	leadID := uuid.New()

	manual := assignManualHandler(svc)
	r, err := manual(context.Background(), makeReq(map[string]any{
		"lead_id":  leadID.String(),
		"agent_id": first.ID.String(),
		"reason":   "relationship",
	}))
	require.NoError(t, err)
	res := decodeResult(t, r)
	require.True(t, res.Success)
	assert.Equal(t, domainassign.TypeManual, res.Assignment.Type)

	reassign := reassignHandler(svc)
	r, err = reassign(context.Background(), makeReq(map[string]any{
		"lead_id":  leadID.String(),
		"agent_id": second.ID.String(),
		"reason":   "vacation",
	}))
	require.NoError(t, err)
	res = decodeResult(t, r)
	require.True(t, res.Success)
	assert.Equal(t, second.ID, res.Assignment.AgentID)
	require.NotNil(t, res.Assignment.PreviousAgentID)
	assert.Equal(t, first.ID, *res.Assignment.PreviousAgentID)

	t.Run("invalid agent_id returns error text", func(t *testing.T) {
		r, err := manual(context.Background(), makeReq(map[string]any{
			"lead_id":  uuid.New().String(),
			"agent_id": "nope",
		}))
		require.NoError(t, err)
		assert.Equal(t, "error: invalid agent_id", resultText(r))
	})
}

// ── update_assignment_status ──────────────────────────────────────────────────

func TestUpdateStatusTool(t *testing.T) {
	agent := testAgent("Alice", 0, 5)
	svc, _ := newServices(agent)
	leadID := uuid.New()

	created, err := svc.AssignAutomatic(context.Background(), leadID, 1, nil)
	require.NoError(t, err)
	require.True(t, created.Success)

	h := updateStatusHandler(svc)

	r, err := h(context.Background(), makeReq(map[string]any{
		"assignment_id": created.Assignment.ID.String(),
		"status":        "accepted",
		"notes":         "on my way",
	}))
	require.NoError(t, err)

	var updated domainassign.Assignment
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &updated))
	assert.Equal(t, domainassign.StatusAccepted, updated.Status)

	t.Run("invalid transition returns error text", func(t *testing.T) {
		r, err := h(context.Background(), makeReq(map[string]any{
			"assignment_id": created.Assignment.ID.String(),
			"status":        "rejected",
		}))
		require.NoError(t, err)
		assert.Contains(t, resultText(r), "error:")
	})
}

// ── get_assignment_stats / histories ──────────────────────────────────────────

func TestStatsAndHistoryTools(t *testing.T) {
	agent := testAgent("Alice", 1, 4)
	svc, metrics := newServices(agent)
	leadID := uuid.New()

	created, err := svc.AssignAutomatic(context.Background(), leadID, 1, nil)
	require.NoError(t, err)
	require.True(t, created.Success)

	r, err := statsHandler(metrics)(context.Background(), makeReq(nil))
	require.NoError(t, err)
	var stats domainassign.Stats
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &stats))
	assert.Equal(t, int64(1), stats.TotalAssignments)

	r, err = leadHistoryHandler(svc)(context.Background(), makeReq(map[string]any{
		"lead_id": leadID.String(),
	}))
	require.NoError(t, err)
	var history []domainassign.Assignment
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &history))
	require.Len(t, history, 1)
	assert.Equal(t, created.Assignment.ID, history[0].ID)

	r, err = agentHistoryHandler(svc)(context.Background(), makeReq(map[string]any{
		"agent_id": agent.ID.String(),
		"limit":    "10",
	}))
	require.NoError(t, err)
	history = nil
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &history))
	assert.Len(t, history, 1)

	t.Run("invalid limit returns error text", func(t *testing.T) {
		r, err := agentHistoryHandler(svc)(context.Background(), makeReq(map[string]any{
			"agent_id": agent.ID.String(),
			"limit":    "zero",
		}))
		require.NoError(t, err)
		assert.Equal(t, "error: invalid limit", resultText(r))
	})
}
