package hal

import (
	"errors"
	"fmt"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Pin is a minimal output pin abstraction (chip select, reset).
type Pin interface {
	High()
	Low()
}

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrClosed         = errors.New("link closed")
	ErrBusy           = errors.New("link busy")

	// ErrCloseTimeout is returned by Close when the transport did not finish
	// its current frame in time. The worker is abandoned.
	ErrCloseTimeout = errors.New("link close timed out")
)

// PixelFormat defines the source surface pixel encoding.
//
// All formats are stored little-endian in memory, the way Linux framebuffers
// and DRM dumb buffers lay them out.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
	// PixelFormatXRGB8888 is 32bpp, bytes B, G, R, X.
	PixelFormatXRGB8888
	// PixelFormatARGB8888 is 32bpp, bytes B, G, R, A. Alpha is ignored.
	PixelFormatARGB8888
)

// BytesPerPixel returns the sample size, or 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGB565:
		return 2
	case PixelFormatXRGB8888, PixelFormatARGB8888:
		return 4
	default:
		return 0
	}
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGB565:
		return "RGB565"
	case PixelFormatXRGB8888:
		return "XRGB8888"
	case PixelFormatARGB8888:
		return "ARGB8888"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
}

// Resolution is a raster size in pixels.
type Resolution struct {
	W int
	H int
}

func (r Resolution) String() string { return fmt.Sprintf("%dx%d", r.W, r.H) }

// FrameBytes is the size of one big-endian RGB565 frame at this resolution.
func (r Resolution) FrameBytes() int { return r.W * r.H * 2 }

// AtLeast returns r with each component raised to at least min's.
func (r Resolution) AtLeast(min Resolution) Resolution {
	if r.W < min.W {
		r.W = min.W
	}
	if r.H < min.H {
		r.H = min.H
	}
	return r
}

// Surface is a read-only view of a source image.
//
// The owner keeps Pix alive for the duration of one call that receives it;
// receivers must not retain it.
type Surface struct {
	Width  int
	Height int
	Format PixelFormat
	Stride int
	Pix    []byte
}

// Size returns the surface dimensions.
func (s Surface) Size() Resolution { return Resolution{W: s.Width, H: s.Height} }

// Link is the byte-serial transport to the display.
type Link interface {
	// TxAsync queues segs for transmission as one frame, in order and without
	// gaps, and calls done exactly once after the last segment went out.
	// done may run on another goroutine and must not block.
	TxAsync(segs [][]byte, done func(error)) error

	// MaxTxSize is the largest segment the link accepts in one transfer,
	// 0 if unlimited.
	MaxTxSize() int
}

// SyncLink is a transport that can only transmit synchronously.
type SyncLink interface {
	Tx(segs [][]byte) error
	MaxTxSize() int
}
