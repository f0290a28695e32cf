package hal

import (
	"sync"
	"time"
)

// DefaultCloseTimeout bounds how long Close waits for a frame in progress.
const DefaultCloseTimeout = time.Second

type txRequest struct {
	segs [][]byte
	done func(error)
}

// AsyncLink runs a SyncLink on its own goroutine so transfers complete
// asynchronously. It accepts one queued frame at a time.
type AsyncLink struct {
	link SyncLink

	mu        sync.Mutex
	closeWait time.Duration
	closed    bool
	reqs      chan txRequest
	quit      chan struct{}
	exited    chan struct{}
}

// NewAsyncLink starts the worker goroutine for l.
func NewAsyncLink(l SyncLink) *AsyncLink {
	a := &AsyncLink{
		link:      l,
		closeWait: DefaultCloseTimeout,
		reqs:      make(chan txRequest, 1),
		quit:      make(chan struct{}),
		exited:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncLink) MaxTxSize() int { return a.link.MaxTxSize() }

// SetCloseTimeout sets how long Close waits for the worker. d <= 0 restores
// DefaultCloseTimeout.
func (a *AsyncLink) SetCloseTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultCloseTimeout
	}
	a.mu.Lock()
	a.closeWait = d
	a.mu.Unlock()
}

// TxAsync queues segs for the worker. It returns ErrBusy if a frame is
// already queued and ErrClosed after Close.
func (a *AsyncLink) TxAsync(segs [][]byte, done func(error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.reqs <- txRequest{segs: segs, done: done}:
		return nil
	default:
		return ErrBusy
	}
}

func (a *AsyncLink) run() {
	defer close(a.exited)
	for {
		select {
		case <-a.quit:
			return
		case req := <-a.reqs:
			err := a.link.Tx(req.segs)
			if req.done != nil {
				req.done(err)
			}
		}
	}
}

// Close stops the worker after the frame in progress. A frame still queued
// completes with ErrClosed. If the transport is stuck in Tx for longer than
// the close timeout, Close returns ErrCloseTimeout without waiting further.
func (a *AsyncLink) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.quit)
	wait := a.closeWait
	a.mu.Unlock()

	var err error
	t := time.NewTimer(wait)
	select {
	case <-a.exited:
	case <-t.C:
		err = ErrCloseTimeout
	}
	t.Stop()

	select {
	case req := <-a.reqs:
		if req.done != nil {
			req.done(ErrClosed)
		}
	default:
	}
	return err
}

type blockingLink struct {
	l SyncLink
}

// Blocking adapts a SyncLink to Link by transmitting inline: done runs
// before TxAsync returns.
func Blocking(l SyncLink) Link {
	return blockingLink{l: l}
}

func (b blockingLink) MaxTxSize() int { return b.l.MaxTxSize() }

func (b blockingLink) TxAsync(segs [][]byte, done func(error)) error {
	err := b.l.Tx(segs)
	if done != nil {
		done(err)
	}
	return nil
}
