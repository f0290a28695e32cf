package xfer

import "context"

// Completion is the done/pending signal of the transfer in flight. It holds
// at most one token; a token present means done, and the token carries the
// result of the transfer that produced it.
type Completion struct {
	ch chan error
}

// NewCompletion returns a signal in the done state.
func NewCompletion() *Completion {
	c := &Completion{ch: make(chan error, 1)}
	c.ch <- nil
	return c
}

// Complete marks the transfer done. It never blocks and is safe from any
// goroutine; a second call for the same transfer is dropped.
func (c *Completion) Complete(err error) {
	select {
	case c.ch <- err:
	default:
	}
}

// Take waits for done, leaves the signal pending and returns the finished
// transfer's result. ok is false if ctx ended first; the signal is then
// unchanged.
func (c *Completion) Take(ctx context.Context) (result error, ok bool) {
	select {
	case err := <-c.ch:
		return err, true
	default:
	}
	select {
	case err := <-c.ch:
		return err, true
	case <-ctx.Done():
		return nil, false
	}
}

// Done reports whether the signal is currently done.
func (c *Completion) Done() bool { return len(c.ch) == 1 }
