package assignment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainassign "github.com/brightdoor/leadrouter/internal/domain/assignment"
	portassign "github.com/brightdoor/leadrouter/internal/port/assignment"
	portdirectory "github.com/brightdoor/leadrouter/internal/port/directory"
	"github.com/brightdoor/leadrouter/internal/service/allocator"
	metricssvc "github.com/brightdoor/leadrouter/internal/service/metrics"
)

func Register(rg *gin.RouterGroup, svc *allocator.Service, metrics *metricssvc.Service) {
	rg.POST("/automatic", assignAutomatic(svc))
	rg.POST("/manual", assignManual(svc))
	rg.POST("/reassign", reassign(svc))
	rg.PATCH("/:id/status", updateStatus(svc))
	rg.GET("/:id", getAssignment(svc))
	rg.GET("/stats", getStats(metrics))
	rg.GET("/lead/:leadId", leadHistory(svc))
	rg.GET("/agent/:agentId", agentHistory(svc))
}

type automaticReq struct {
	LeadID         uuid.UUID `json:"lead_id" binding:"required"`
	Priority       int       `json:"priority"`
	RequiredSkills []string  `json:"required_skills"`
}

func assignAutomatic(svc *allocator.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req automaticReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Priority == 0 {
			req.Priority = 1
		}
		if req.Priority < 1 || req.Priority > 10 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be between 1 and 10"})
			return
		}

		res, err := svc.AssignAutomatic(c.Request.Context(), req.LeadID, req.Priority, req.RequiredSkills)
		writeResult(c, res, err)
	}
}

type manualReq struct {
	LeadID  uuid.UUID `json:"lead_id" binding:"required"`
	AgentID uuid.UUID `json:"agent_id" binding:"required"`
	Reason  string    `json:"reason"`
}

func assignManual(svc *allocator.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req manualReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		res, err := svc.AssignManual(c.Request.Context(), req.LeadID, req.AgentID, req.Reason)
		writeResult(c, res, err)
	}
}

func reassign(svc *allocator.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req manualReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		res, err := svc.Reassign(c.Request.Context(), req.LeadID, req.AgentID, req.Reason)
		writeResult(c, res, err)
	}
}

type statusReq struct {
	Status domainassign.Status `json:"status" binding:"required"`
	Notes  string              `json:"notes"`
}

func updateStatus(svc *allocator.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req statusReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updated, err := svc.UpdateStatus(c.Request.Context(), id, req.Status, req.Notes)
		if err != nil {
			switch {
			case errors.Is(err, portassign.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case errors.Is(err, allocator.ErrInvalidTransition):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func getAssignment(svc *allocator.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		a, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, portassign.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

func getStats(metrics *metricssvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := metrics.GetStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func leadHistory(svc *allocator.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		leadID, err := uuid.Parse(c.Param("leadId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid leadId"})
			return
		}

		history, err := svc.GetLeadHistory(c.Request.Context(), leadID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if history == nil {
			history = []domainassign.Assignment{}
		}
		c.JSON(http.StatusOK, history)
	}
}

func agentHistory(svc *allocator.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		agentID, err := uuid.Parse(c.Param("agentId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agentId"})
			return
		}

		limit := allocator.DefaultHistoryLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = n
		}

		history, err := svc.GetAgentHistory(c.Request.Context(), agentID, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if history == nil {
			history = []domainassign.Assignment{}
		}
		c.JSON(http.StatusOK, history)
	}
}

// writeResult maps an allocator outcome to HTTP: infrastructure errors are
// 5xx (except unknown agents, which are the caller's mistake), business
// failures are 409 with the structured result body, success is 201.
func writeResult(c *gin.Context, res allocator.Result, err error) {
	if err != nil {
		if errors.Is(err, portdirectory.ErrAgentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !res.Success {
		c.JSON(http.StatusConflict, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}
