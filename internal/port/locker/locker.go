package locker

import "context"

// AdvisoryLocker serialises critical sections keyed by an int64. The engine
// derives the key from a lead ID so all mutating operations on the same lead
// are mutually exclusive — the find-active-then-insert sequence behind the
// one-active-assignment-per-lead invariant is not safe without it.
//
// The Postgres implementation uses session advisory locks; WithLock ensures
// lock and unlock occur on the same connection.
type AdvisoryLocker interface {
	WithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error
}
