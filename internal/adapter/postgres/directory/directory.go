package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainagent "github.com/brightdoor/leadrouter/internal/domain/agent"
	portdirectory "github.com/brightdoor/leadrouter/internal/port/directory"
)

var _ portdirectory.AgentDirectory = (*Directory)(nil)

// Directory reads the surrounding CRM's agents table. The engine never
// writes it — workload and availability are maintained by the (external)
// agent-management side of the system.
type Directory struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

const columns = `id, name, current_workload, max_capacity, skills, availability, last_active`

func (d *Directory) ListAvailable(ctx context.Context) ([]domainagent.Agent, error) {
	avail := domainagent.Available
	return d.List(ctx, domainagent.ListFilters{Availability: &avail})
}

func (d *Directory) Get(ctx context.Context, id uuid.UUID) (domainagent.Agent, error) {
	query := `SELECT ` + columns + ` FROM agents WHERE id = $1`

	var a domainagent.Agent
	err := d.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Name, &a.CurrentWorkload, &a.MaxCapacity,
		&a.Skills, &a.Availability, &a.LastActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainagent.Agent{}, portdirectory.ErrAgentNotFound
		}
		return domainagent.Agent{}, fmt.Errorf("querying agent: %w", err)
	}
	return a, nil
}

func (d *Directory) List(ctx context.Context, filters domainagent.ListFilters) ([]domainagent.Agent, error) {
	query := `SELECT ` + columns + ` FROM agents WHERE 1=1`

	args := []interface{}{}
	argIdx := 1

	if filters.Availability != nil {
		query += fmt.Sprintf(" AND availability = $%d", argIdx)
		args = append(args, string(*filters.Availability))
		argIdx++
	}
	if filters.Skill != nil {
		query += fmt.Sprintf(" AND skills @> ARRAY[$%d]::text[]", argIdx)
		args = append(args, *filters.Skill)
	}

	query += " ORDER BY id"

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	defer rows.Close()

	var out []domainagent.Agent
	for rows.Next() {
		var a domainagent.Agent
		if err := rows.Scan(
			&a.ID, &a.Name, &a.CurrentWorkload, &a.MaxCapacity,
			&a.Skills, &a.Availability, &a.LastActive,
		); err != nil {
			return nil, fmt.Errorf("scanning agent: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
