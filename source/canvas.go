package source

import (
	"image/color"

	"spifb/hal"

	"tinygo.org/x/drivers"
)

// Canvas is an in-memory surface that TinyGo display code can draw on.
//
// It implements drivers.Displayer plus the extras tinyterm needs. SetScroll
// emulates a panel's vertical scroll register: the line given becomes the
// top row of every Snapshot.
type Canvas struct {
	w      int
	h      int
	format hal.PixelFormat
	stride int
	pix    []byte
	scroll int
	out    []byte
}

// NewCanvas allocates a res canvas in format f (RGB565 or XRGB8888).
func NewCanvas(res hal.Resolution, f hal.PixelFormat) *Canvas {
	if f != hal.PixelFormatRGB565 {
		f = hal.PixelFormatXRGB8888
	}
	stride := res.W * f.BytesPerPixel()
	return &Canvas{
		w:      res.W,
		h:      res.H,
		format: f,
		stride: stride,
		pix:    make([]byte, stride*res.H),
		out:    make([]byte, stride*res.H),
	}
}

func (c *Canvas) Size() (x, y int16) { return int16(c.w), int16(c.h) }

func (c *Canvas) SetPixel(x, y int16, col color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= c.w || iy < 0 || iy >= c.h {
		return
	}
	c.put(iy*c.stride+ix*c.format.BytesPerPixel(), col)
}

func (c *Canvas) put(off int, col color.RGBA) {
	if c.format == hal.PixelFormatRGB565 {
		p := hal.RGB565(col.R, col.G, col.B)
		c.pix[off] = byte(p)
		c.pix[off+1] = byte(p >> 8)
		return
	}
	c.pix[off+0] = col.B
	c.pix[off+1] = col.G
	c.pix[off+2] = col.R
	c.pix[off+3] = 0xFF
}

func (c *Canvas) Display() error { return nil }

func (c *Canvas) FillRectangle(x, y, width, height int16, col color.RGBA) error {
	x0 := clampInt(int(x), 0, c.w)
	y0 := clampInt(int(y), 0, c.h)
	x1 := clampInt(int(x)+int(width), 0, c.w)
	y1 := clampInt(int(y)+int(height), 0, c.h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	bpp := c.format.BytesPerPixel()
	first := y0*c.stride + x0*bpp
	c.put(first, col)
	sample := c.pix[first : first+bpp]
	for py := y0; py < y1; py++ {
		row := c.pix[py*c.stride+x0*bpp : py*c.stride+x1*bpp]
		for i := 0; i < len(row); i += bpp {
			copy(row[i:], sample)
		}
	}
	return nil
}

// Clear fills the whole canvas and resets the scroll offset.
func (c *Canvas) Clear(col color.RGBA) {
	c.scroll = 0
	_ = c.FillRectangle(0, 0, int16(c.w), int16(c.h), col)
}

func (c *Canvas) SetScroll(line int16) {
	if c.h == 0 {
		return
	}
	c.scroll = ((int(line) % c.h) + c.h) % c.h
}

// SetRotation only accepts the native orientation.
func (c *Canvas) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return hal.ErrNotImplemented
	}
	return nil
}

// Snapshot copies the canvas, scroll applied, into a stable surface. The
// surface stays valid until the next Snapshot.
func (c *Canvas) Snapshot() hal.Surface {
	n := (c.h - c.scroll) * c.stride
	copy(c.out, c.pix[c.scroll*c.stride:])
	copy(c.out[n:], c.pix[:c.scroll*c.stride])
	return hal.Surface{
		Width:  c.w,
		Height: c.h,
		Format: c.format,
		Stride: c.stride,
		Pix:    c.out,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
