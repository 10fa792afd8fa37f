package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	domainagent "github.com/brightdoor/leadrouter/internal/domain/agent"
)

var ErrAgentNotFound = errors.New("agent not found")

// AgentDirectory is the engine's read-only view of the agent fleet. It is an
// external collaborator: failures propagate to the caller unchanged — the
// engine never guesses agent state.
type AgentDirectory interface {
	// ListAvailable returns every agent with availability "available".
	ListAvailable(ctx context.Context) ([]domainagent.Agent, error)
	Get(ctx context.Context, id uuid.UUID) (domainagent.Agent, error)
	List(ctx context.Context, filters domainagent.ListFilters) ([]domainagent.Agent, error)
}
