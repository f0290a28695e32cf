package hal

import (
	"sync"
	"sync/atomic"
	"time"
)

// PreviewLink emulates the slave display: it accepts raw big-endian RGB565
// frames into its own RAM, which RunPreview paints into a desktop window.
type PreviewLink struct {
	res   Resolution
	hz    int64
	maxTx int
	sleep func(time.Duration)

	mu     sync.Mutex
	ram    []byte
	frames atomic.Uint64
	short  atomic.Uint64
	closed atomic.Bool
}

// NewPreviewLink returns an emulated display of res pixels. When hz is
// non-zero each frame takes as long as it would on a bus of that clock.
func NewPreviewLink(res Resolution, hz int64, maxTx int) *PreviewLink {
	return &PreviewLink{
		res:   res,
		hz:    hz,
		maxTx: maxTx,
		sleep: time.Sleep,
		ram:   make([]byte, res.FrameBytes()),
	}
}

func (p *PreviewLink) MaxTxSize() int { return p.maxTx }

// Tx receives one frame. The device latches whatever arrived; a short frame
// leaves the tail of the previous one, as a real panel would.
func (p *PreviewLink) Tx(segs [][]byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	n := 0
	for _, seg := range segs {
		n += len(seg)
	}
	if d := busTime(n, p.hz); d > 0 {
		p.sleep(d)
	}

	p.mu.Lock()
	off := 0
	for _, seg := range segs {
		off += copy(p.ram[off:], seg)
	}
	p.mu.Unlock()

	if n != len(p.ram) {
		p.short.Add(1)
	}
	p.frames.Add(1)
	return nil
}

// Resolution returns the emulated panel size.
func (p *PreviewLink) Resolution() Resolution { return p.res }

// Frames returns the number of frames received.
func (p *PreviewLink) Frames() uint64 { return p.frames.Load() }

// ShortFrames returns how many frames did not match the panel size.
func (p *PreviewLink) ShortFrames() uint64 { return p.short.Load() }

// Snapshot copies the panel RAM into dst.
func (p *PreviewLink) Snapshot(dst []byte) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copy(dst, p.ram)
}

// Close makes further transfers fail and ends RunPreview.
func (p *PreviewLink) Close() error {
	p.closed.Store(true)
	return nil
}

// decodeBE565 expands big-endian RGB565 into RGBA8888.
func decodeBE565(dst, src []byte) {
	for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
		r, g, b := RGB888(uint16(src[i])<<8 | uint16(src[i+1]))
		j := (i / 2) * 4
		dst[j+0] = r
		dst[j+1] = g
		dst[j+2] = b
		dst[j+3] = 0xFF
	}
}
