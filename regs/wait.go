package regs

import (
	"context"
	"time"
)

// WaitPolicy bounds the busy-wait loops drivers run on status bits.
// The zero value polls forever without yielding, which is what the
// hardware reference sequences do.
type WaitPolicy struct {
	// Timeout caps a single wait; zero means no limit.
	Timeout time.Duration
	// Yield runs between polls (e.g. runtime.Gosched or a short sleep).
	Yield func()
}

// Poll calls done until it reports true, the context ends, or the policy's
// timeout elapses, in which case timeoutErr is returned.
func Poll(ctx context.Context, p WaitPolicy, timeoutErr error, done func() (bool, error)) error {
	var deadline time.Time
	if p.Timeout > 0 {
		deadline = time.Now().Add(p.Timeout)
	}
	for {
		ok, err := done()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return timeoutErr
		}
		if p.Yield != nil {
			p.Yield()
		}
	}
}
