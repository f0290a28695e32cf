package source

import (
	"fmt"
	"image/color"

	"spifb/hal"
	"spifb/internal/buildinfo"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var bars = [...]color.RGBA{
	{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	{R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF},
	{R: 0x00, G: 0xFF, B: 0xFF, A: 0xFF},
	{R: 0x00, G: 0xFF, B: 0x00, A: 0xFF},
	{R: 0xFF, G: 0x00, B: 0xFF, A: 0xFF},
	{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF},
	{R: 0x00, G: 0x00, B: 0xFF, A: 0xFF},
	{R: 0x00, G: 0x00, B: 0x00, A: 0xFF},
}

// Pattern draws colour bars with a sweeping marker and a frame counter, so
// every frame differs and tearing or dropped frames are visible on the panel.
type Pattern struct {
	c     *Canvas
	res   hal.Resolution
	frame uint64
	font  *tinyfont.Font
}

// NewPattern returns a pattern source at res.
func NewPattern(res hal.Resolution) *Pattern {
	return &Pattern{
		c:    NewCanvas(res, hal.PixelFormatXRGB8888),
		res:  res,
		font: &proggy.TinySZ8pt7b,
	}
}

func (p *Pattern) Frame() (hal.Surface, error) {
	w, h := p.res.W, p.res.H
	bw := (w + len(bars) - 1) / len(bars)
	for i, col := range bars {
		_ = p.c.FillRectangle(int16(i*bw), 0, int16(bw), int16(h), col)
	}

	mw := w / 32
	if mw < 2 {
		mw = 2
	}
	mx := int(p.frame*4) % w
	_ = p.c.FillRectangle(int16(mx), int16(h*3/4), int16(mw), int16(h/4), color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF})

	lh := int16(p.font.YAdvance)
	_ = p.c.FillRectangle(0, 0, int16(w), lh+4, color.RGBA{A: 0xFF})
	hud := fmt.Sprintf("spifb %s %s #%d", buildinfo.Short(), p.res, p.frame)
	tinyfont.WriteLine(p.c, p.font, 2, lh, hud, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})

	p.frame++
	return p.c.Snapshot(), nil
}

func (p *Pattern) Close() error { return nil }
