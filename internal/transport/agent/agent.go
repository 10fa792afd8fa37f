package agent

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagent "github.com/brightdoor/leadrouter/internal/domain/agent"
	portdirectory "github.com/brightdoor/leadrouter/internal/port/directory"
)

// Register exposes the agent directory read-only. Agent state is owned by
// the surrounding CRM; the engine only consumes it.
func Register(rg *gin.RouterGroup, dir portdirectory.AgentDirectory) {
	rg.GET("/", listAgents(dir))
	rg.GET("/:id", getAgent(dir))
}

func listAgents(dir portdirectory.AgentDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters domainagent.ListFilters

		if v := c.Query("availability"); v != "" {
			a := domainagent.Availability(v)
			filters.Availability = &a
		}
		if v := c.Query("skill"); v != "" {
			filters.Skill = &v
		}

		agents, err := dir.List(c.Request.Context(), filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if agents == nil {
			agents = []domainagent.Agent{}
		}
		c.JSON(http.StatusOK, agents)
	}
}

func getAgent(dir portdirectory.AgentDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		a, err := dir.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, portdirectory.ErrAgentNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, a)
	}
}
