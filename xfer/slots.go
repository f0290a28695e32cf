package xfer

import (
	"errors"
	"fmt"
)

// MaxFrameBytes bounds slot allocation; larger frames fail at construction.
const MaxFrameBytes = 64 << 20

// ErrFrameSize rejects frame sizes that are zero, odd or above MaxFrameBytes.
var ErrFrameSize = errors.New("xfer: invalid frame size")

// SlotID names one of the two frame buffers.
type SlotID uint8

const (
	SlotA SlotID = iota
	SlotB
)

// Other returns the opposite slot.
func (id SlotID) Other() SlotID { return id ^ 1 }

func (id SlotID) String() string {
	switch id {
	case SlotA:
		return "A"
	case SlotB:
		return "B"
	default:
		return fmt.Sprintf("SlotID(%d)", uint8(id))
	}
}

// Slots is the double-buffer arena: two fixed buffers, one write target and
// at most one in flight. Only the producer goroutine touches it.
type Slots struct {
	a []byte
	b []byte

	write  SlotID
	flight SlotID
	busy   bool
}

// NewSlots allocates both buffers of size bytes.
func NewSlots(size int) (*Slots, error) {
	if size <= 0 || size%2 != 0 || size > MaxFrameBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameSize, size)
	}
	return &Slots{
		a:     make([]byte, size),
		b:     make([]byte, size),
		write: SlotA,
	}, nil
}

// Buf returns the buffer of slot id.
func (s *Slots) Buf(id SlotID) []byte {
	if id == SlotA {
		return s.a
	}
	return s.b
}

// Size is the byte length of each slot.
func (s *Slots) Size() int { return len(s.a) }

// WriteTarget returns the slot the converter owns.
func (s *Slots) WriteTarget() SlotID { return s.write }

// InFlight returns the slot the link owns, if any.
func (s *Slots) InFlight() (SlotID, bool) { return s.flight, s.busy }

// launch hands the write target to the link and flips.
func (s *Slots) launch() SlotID {
	id := s.write
	s.flight = id
	s.busy = true
	s.write = id.Other()
	return id
}

// settle returns the in-flight slot after its transfer completed.
func (s *Slots) settle() {
	s.busy = false
}
