package hal

import (
	"sync/atomic"
	"time"
)

// busTime is how long n bytes take on a bus clocked at hz, one bit per cycle.
func busTime(n int, hz int64) time.Duration {
	if hz <= 0 || n <= 0 {
		return 0
	}
	return time.Duration(int64(n) * 8 * int64(time.Second) / hz)
}

// NullLink discards frames, optionally taking as long as a real bus would.
// It counts what it was given.
type NullLink struct {
	hz     int64
	maxTx  int
	sleep  func(time.Duration)
	frames atomic.Uint64
	bytes  atomic.Uint64
}

// NewNullLink returns a sink throttled to hz (0 = instant).
func NewNullLink(hz int64, maxTx int) *NullLink {
	return &NullLink{hz: hz, maxTx: maxTx, sleep: time.Sleep}
}

func (l *NullLink) MaxTxSize() int { return l.maxTx }

func (l *NullLink) Tx(segs [][]byte) error {
	n := 0
	for _, seg := range segs {
		n += len(seg)
	}
	if d := busTime(n, l.hz); d > 0 {
		l.sleep(d)
	}
	l.frames.Add(1)
	l.bytes.Add(uint64(n))
	return nil
}

// Frames returns the number of frames transmitted.
func (l *NullLink) Frames() uint64 { return l.frames.Load() }

// Bytes returns the number of bytes transmitted.
func (l *NullLink) Bytes() uint64 { return l.bytes.Load() }
