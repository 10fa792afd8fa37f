package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	domainagent "github.com/brightdoor/leadrouter/internal/domain/agent"
	portdirectory "github.com/brightdoor/leadrouter/internal/port/directory"
)

var _ portdirectory.AgentDirectory = (*Directory)(nil)

// Directory is an in-memory Agent Directory for tests and single-node
// development. Production deployments read the surrounding CRM's agents
// table through the Postgres adapter instead.
type Directory struct {
	mu     sync.RWMutex
	agents map[uuid.UUID]domainagent.Agent
}

func NewDirectory(agents ...domainagent.Agent) *Directory {
	d := &Directory{agents: make(map[uuid.UUID]domainagent.Agent, len(agents))}
	for _, a := range agents {
		d.agents[a.ID] = a
	}
	return d
}

// Put inserts or replaces an agent snapshot.
func (d *Directory) Put(a domainagent.Agent) {
	d.mu.Lock()
	d.agents[a.ID] = a
	d.mu.Unlock()
}

func (d *Directory) ListAvailable(ctx context.Context) ([]domainagent.Agent, error) {
	avail := domainagent.Available
	return d.List(ctx, domainagent.ListFilters{Availability: &avail})
}

func (d *Directory) Get(_ context.Context, id uuid.UUID) (domainagent.Agent, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.agents[id]
	if !ok {
		return domainagent.Agent{}, portdirectory.ErrAgentNotFound
	}
	return a, nil
}

func (d *Directory) List(_ context.Context, filters domainagent.ListFilters) ([]domainagent.Agent, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []domainagent.Agent
	for _, a := range d.agents {
		if filters.Availability != nil && a.Availability != *filters.Availability {
			continue
		}
		if filters.Skill != nil && !a.HasSkill(*filters.Skill) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}
