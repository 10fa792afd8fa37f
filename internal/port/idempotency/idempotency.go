package idempotency

import "context"

// Store records the first response produced under an idempotency key so a
// retried request replays it instead of re-running the operation. Assignment
// operations are not idempotent by themselves — a retried reassign would
// stack rows — so callers that retry must supply a key.
type Store interface {
	// Check looks up an existing key. Returns the stored result JSON and
	// whether the key exists.
	Check(ctx context.Context, key string) ([]byte, bool, error)

	// Record stores the result of a processed operation under the key.
	// Recording an existing key is a no-op (first write wins).
	Record(ctx context.Context, key, operation string, result []byte) error
}
