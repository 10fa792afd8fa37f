package idempotency

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	portidem "github.com/brightdoor/leadrouter/internal/port/idempotency"
)

var _ portidem.Store = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Check looks up an existing idempotency key. Returns the stored result JSON
// and whether the key exists.
func (r *Repository) Check(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT result_jsonb FROM processed_operations WHERE idempotency_key = $1`

	var result []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(&result)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("checking idempotency key: %w", err)
	}
	return result, true, nil
}

// Record stores a processed operation keyed by the idempotency key. First
// write wins.
func (r *Repository) Record(ctx context.Context, key, operation string, result []byte) error {
	query := `
		INSERT INTO processed_operations (idempotency_key, operation_type, result_jsonb, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, key, operation, result); err != nil {
		return fmt.Errorf("storing idempotency key: %w", err)
	}
	return nil
}
