package allocator

import (
	"context"
	"errors"
	"net"
)

// Transient reports whether an infrastructure error is worth retrying:
// deadlines, cancellations, and network timeouts. Business failures never
// reach here — they are carried in Result, not in errors. Anything not
// recognised as transient is treated as permanent and should surface to an
// operator rather than a retry loop.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
