package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	domainassign "github.com/brightdoor/leadrouter/internal/domain/assignment"
	"github.com/brightdoor/leadrouter/internal/service/allocator"
	metricssvc "github.com/brightdoor/leadrouter/internal/service/metrics"
)

// RegisterTools registers all MCP tools on the server.
func RegisterTools(s *mcpserver.MCPServer, svc *allocator.Service, metrics *metricssvc.Service) {
	s.AddTool(mcpmcp.NewTool("assign_lead",
		mcpmcp.WithDescription("Automatically assign a lead to the best-scoring available agent. Returns the assignment and the score breakdown, or success=false with a reason when no agent can take the lead."),
		mcpmcp.WithString("lead_id", mcpmcp.Required(), mcpmcp.Description("Lead UUID")),
		mcpmcp.WithString("priority", mcpmcp.Description("Lead priority 1-10 (default 1)")),
		mcpmcp.WithString("required_skills", mcpmcp.Description("Comma-separated skill tags derived from the lead, e.g. luxury,waterfront")),
	), assignLeadHandler(svc))

	s.AddTool(mcpmcp.NewTool("assign_lead_manual",
		mcpmcp.WithDescription("Assign a lead to a specific agent, bypassing scoring. Fails when the agent is unavailable or at capacity."),
		mcpmcp.WithString("lead_id", mcpmcp.Required(), mcpmcp.Description("Lead UUID")),
		mcpmcp.WithString("agent_id", mcpmcp.Required(), mcpmcp.Description("Agent UUID")),
		mcpmcp.WithString("reason", mcpmcp.Description("Why this agent was chosen")),
	), assignManualHandler(svc))

	s.AddTool(mcpmcp.NewTool("reassign_lead",
		mcpmcp.WithDescription("Move a lead's active assignment to a new agent. The old assignment is closed with status 'reassigned' and a new pending one is created."),
		mcpmcp.WithString("lead_id", mcpmcp.Required(), mcpmcp.Description("Lead UUID")),
		mcpmcp.WithString("agent_id", mcpmcp.Required(), mcpmcp.Description("New agent UUID")),
		mcpmcp.WithString("reason", mcpmcp.Description("Reassignment reason, stored on the superseded row")),
	), reassignHandler(svc))

	s.AddTool(mcpmcp.NewTool("update_assignment_status",
		mcpmcp.WithDescription("Advance an assignment through its lifecycle. Valid transitions: pending→accepted/rejected, accepted→completed."),
		mcpmcp.WithString("assignment_id", mcpmcp.Required(), mcpmcp.Description("Assignment UUID")),
		mcpmcp.WithString("status", mcpmcp.Required(), mcpmcp.Description("Target status: accepted, rejected, or completed")),
		mcpmcp.WithString("notes", mcpmcp.Description("Free-text notes stored on the assignment")),
	), updateStatusHandler(svc))

	s.AddTool(mcpmcp.NewTool("get_assignment_stats",
		mcpmcp.WithDescription("Fleet-wide assignment statistics: counts, average resolution time, workload balance score, aggregate skill match, and per-agent utilization."),
	), statsHandler(metrics))

	s.AddTool(mcpmcp.NewTool("get_lead_history",
		mcpmcp.WithDescription("Full assignment trail for a lead, newest first."),
		mcpmcp.WithString("lead_id", mcpmcp.Required(), mcpmcp.Description("Lead UUID")),
	), leadHistoryHandler(svc))

	s.AddTool(mcpmcp.NewTool("get_agent_history",
		mcpmcp.WithDescription("Recent assignments for an agent, newest first."),
		mcpmcp.WithString("agent_id", mcpmcp.Required(), mcpmcp.Description("Agent UUID")),
		mcpmcp.WithString("limit", mcpmcp.Description("Maximum rows to return (default 50)")),
	), agentHistoryHandler(svc))
}

// ── Tool handlers ─────────────────────────────────────────────────────────────

func assignLeadHandler(svc *allocator.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		leadID, err := uuid.Parse(mcpmcp.ParseString(req, "lead_id", ""))
		if err != nil {
			return mcpmcp.NewToolResultText("error: invalid lead_id"), nil
		}

		priority := 1
		if v := mcpmcp.ParseString(req, "priority", ""); v != "" {
			priority, err = strconv.Atoi(v)
			if err != nil || priority < 1 || priority > 10 {
				return mcpmcp.NewToolResultText("error: priority must be an integer between 1 and 10"), nil
			}
		}

		var skills []string
		if v := mcpmcp.ParseString(req, "required_skills", ""); v != "" {
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					skills = append(skills, s)
				}
			}
		}

		res, err := svc.AssignAutomatic(ctx, leadID, priority, skills)
		if err != nil {
			return nil, fmt.Errorf("assign lead: %w", err)
		}
		return jsonResult(res)
	}
}

func assignManualHandler(svc *allocator.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		leadID, agentID, bad := parseLeadAgent(req)
		if bad != nil {
			return bad, nil
		}

		res, err := svc.AssignManual(ctx, leadID, agentID, mcpmcp.ParseString(req, "reason", ""))
		if err != nil {
			return nil, fmt.Errorf("assign lead manually: %w", err)
		}
		return jsonResult(res)
	}
}

func reassignHandler(svc *allocator.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		leadID, agentID, bad := parseLeadAgent(req)
		if bad != nil {
			return bad, nil
		}

		res, err := svc.Reassign(ctx, leadID, agentID, mcpmcp.ParseString(req, "reason", ""))
		if err != nil {
			return nil, fmt.Errorf("reassign lead: %w", err)
		}
		return jsonResult(res)
	}
}

func updateStatusHandler(svc *allocator.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id, err := uuid.Parse(mcpmcp.ParseString(req, "assignment_id", ""))
		if err != nil {
			return mcpmcp.NewToolResultText("error: invalid assignment_id"), nil
		}
		status := domainassign.Status(mcpmcp.ParseString(req, "status", ""))

		updated, err := svc.UpdateStatus(ctx, id, status, mcpmcp.ParseString(req, "notes", ""))
		if err != nil {
			return mcpmcp.NewToolResultText("error: " + err.Error()), nil
		}
		return jsonResult(updated)
	}
}

func statsHandler(metrics *metricssvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, _ mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		stats, err := metrics.GetStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("get stats: %w", err)
		}
		return jsonResult(stats)
	}
}

func leadHistoryHandler(svc *allocator.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		leadID, err := uuid.Parse(mcpmcp.ParseString(req, "lead_id", ""))
		if err != nil {
			return mcpmcp.NewToolResultText("error: invalid lead_id"), nil
		}

		history, err := svc.GetLeadHistory(ctx, leadID)
		if err != nil {
			return nil, fmt.Errorf("lead history: %w", err)
		}
		return jsonResult(history)
	}
}

func agentHistoryHandler(svc *allocator.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		agentID, err := uuid.Parse(mcpmcp.ParseString(req, "agent_id", ""))
		if err != nil {
			return mcpmcp.NewToolResultText("error: invalid agent_id"), nil
		}

		limit := 0
		if v := mcpmcp.ParseString(req, "limit", ""); v != "" {
			if limit, err = strconv.Atoi(v); err != nil || limit < 1 {
				return mcpmcp.NewToolResultText("error: invalid limit"), nil
			}
		}

		history, err := svc.GetAgentHistory(ctx, agentID, limit)
		if err != nil {
			return nil, fmt.Errorf("agent history: %w", err)
		}
		return jsonResult(history)
	}
}

func parseLeadAgent(req mcpmcp.CallToolRequest) (leadID, agentID uuid.UUID, bad *mcpmcp.CallToolResult) {
	leadID, err := uuid.Parse(mcpmcp.ParseString(req, "lead_id", ""))
	if err != nil {
		return uuid.Nil, uuid.Nil, mcpmcp.NewToolResultText("error: invalid lead_id")
	}
	agentID, err = uuid.Parse(mcpmcp.ParseString(req, "agent_id", ""))
	if err != nil {
		return uuid.Nil, uuid.Nil, mcpmcp.NewToolResultText("error: invalid agent_id")
	}
	return leadID, agentID, nil
}

func jsonResult(v any) (*mcpmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcpmcp.NewToolResultText(string(data)), nil
}
