// Package xfer double-buffers frames against an asynchronous link.
//
// The converter fills WriteTarget, then Submit waits for the previous
// transfer, starts the new one and flips. Waiting before starting keeps at
// most one frame in flight and guarantees the converter never writes a slot
// the link still reads:
//
//	convert A | submit A  (wait: idle)       -> A in flight, write B
//	convert B | submit B  (wait: A finished) -> B in flight, write A
//	convert A | ...
package xfer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"spifb/hal"
)

// ErrDrainTimeout is returned by Drain when the transfer in flight did not
// complete in time.
var ErrDrainTimeout = errors.New("xfer: drain timed out")

// Options tunes a Scheduler.
type Options struct {
	// MaxTxSize caps segment length below the link's own limit. 0 keeps the
	// link limit.
	MaxTxSize int
	Logger    hal.Logger
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Frames   uint64
	Bytes    uint64
	TxErrors uint64
	Segments int
	LastWait time.Duration
}

// Scheduler owns the two slots, the completion signal and the link.
type Scheduler struct {
	link  hal.Link
	slots *Slots
	done  *Completion
	segs  [2][][]byte
	log   hal.Logger
	now   func() time.Time

	frames   atomic.Uint64
	bytes    atomic.Uint64
	txErrors atomic.Uint64
	lastWait atomic.Int64
}

// NewScheduler allocates two frameSize slots for link. It fails if the slots
// cannot be allocated; the pipeline must not start in that case.
func NewScheduler(link hal.Link, frameSize int, opt Options) (*Scheduler, error) {
	if link == nil {
		return nil, errors.New("xfer: nil link")
	}
	slots, err := NewSlots(frameSize)
	if err != nil {
		return nil, err
	}

	max := link.MaxTxSize()
	if opt.MaxTxSize > 0 && (max <= 0 || opt.MaxTxSize < max) {
		max = opt.MaxTxSize
	}

	s := &Scheduler{
		link:  link,
		slots: slots,
		done:  NewCompletion(),
		log:   opt.Logger,
		now:   time.Now,
	}
	s.segs[SlotA] = Segments(slots.Buf(SlotA), max)
	s.segs[SlotB] = Segments(slots.Buf(SlotB), max)
	return s, nil
}

// Segments splits buf into consecutive pieces of at most max bytes, keeping
// each piece an even length so no RGB565 sample straddles two transfers.
// max <= 0 yields buf whole.
func Segments(buf []byte, max int) [][]byte {
	if max <= 0 || max >= len(buf) {
		return [][]byte{buf}
	}
	if max > 1 {
		max &^= 1
	}
	out := make([][]byte, 0, (len(buf)+max-1)/max)
	for off := 0; off < len(buf); off += max {
		end := off + max
		if end > len(buf) {
			end = len(buf)
		}
		out = append(out, buf[off:end:end])
	}
	return out
}

// WriteTarget is the buffer the next frame must be converted into.
func (s *Scheduler) WriteTarget() []byte {
	return s.slots.Buf(s.slots.WriteTarget())
}

// Slots exposes the arena for inspection.
func (s *Scheduler) Slots() *Slots { return s.slots }

// Submit transmits the write target, which must be fully converted. It
// blocks until the previous transfer finished, which is the pipeline's only
// backpressure point, then starts the transfer and flips.
func (s *Scheduler) Submit(ctx context.Context) error {
	start := s.now()
	prev, ok := s.done.Take(ctx)
	if !ok {
		return ctx.Err()
	}
	s.lastWait.Store(int64(s.now().Sub(start)))
	s.slots.settle()
	if prev != nil {
		s.txErrors.Add(1)
		hal.Logf(s.log, "warn: xfer: previous transfer failed: %v", prev)
	}

	id := s.slots.WriteTarget()
	if err := s.link.TxAsync(s.segs[id], s.done.Complete); err != nil {
		// Nothing went out; keep the signal done and the write target.
		s.done.Complete(nil)
		return fmt.Errorf("xfer: submit slot %s: %w", id, err)
	}
	s.slots.launch()
	s.frames.Add(1)
	s.bytes.Add(uint64(s.slots.Size()))
	return nil
}

// Drain waits up to timeout for the outstanding transfer and returns its
// result. On expiry it returns ErrDrainTimeout and the caller should carry on
// with teardown.
func (s *Scheduler) Drain(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	res, ok := s.done.Take(ctx)
	if !ok {
		return ErrDrainTimeout
	}
	s.done.Complete(nil)
	s.slots.settle()
	if res != nil {
		s.txErrors.Add(1)
	}
	return res
}

// Stats returns current counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Frames:   s.frames.Load(),
		Bytes:    s.bytes.Load(),
		TxErrors: s.txErrors.Load(),
		Segments: len(s.segs[SlotA]),
		LastWait: time.Duration(s.lastWait.Load()),
	}
}
