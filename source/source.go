// Package source produces compositor surfaces for the pipeline: a test
// pattern, a text console, a still image or a Linux framebuffer.
package source

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strings"

	"spifb/hal"
)

// Source yields frames at the virtual resolution.
type Source interface {
	// Frame returns the current picture. The surface stays valid until the
	// next call to Frame.
	Frame() (hal.Surface, error)
	Close() error
}

// Open builds a source from its name: "pattern", "console",
// "image:<path>" or "fbdev:<path>". The console reads stdin.
func Open(name string, virt hal.Resolution) (Source, error) {
	kind, arg, _ := strings.Cut(name, ":")
	switch kind {
	case "pattern":
		return NewPattern(virt), nil
	case "console":
		return NewConsole(os.Stdin, virt), nil
	case "image":
		st, err := LoadImage(arg, virt)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "fbdev":
		fb, err := OpenFBDev(arg)
		if err != nil {
			return nil, err
		}
		if got := fb.Size(); got != virt {
			_ = fb.Close()
			return nil, fmt.Errorf("source: %s is %s, compositor is %s", arg, got, virt)
		}
		return fb, nil
	}
	return nil, fmt.Errorf("source: unknown source %q", name)
}

// DamageTracker reports which rows of a polled source changed since the
// previous frame. The panel is always refreshed whole, so the result is a
// full-width band or empty.
type DamageTracker struct {
	prev  []byte
	size  hal.Resolution
	valid bool
}

// Damage compares s against the previous call and remembers s.
func (d *DamageTracker) Damage(s hal.Surface) image.Rectangle {
	rowBytes := s.Width * s.Format.BytesPerPixel()
	if rowBytes <= 0 || s.Height <= 0 {
		return image.Rectangle{}
	}
	full := image.Rect(0, 0, s.Width, s.Height)

	if !d.valid || d.size != s.Size() || len(d.prev) != rowBytes*s.Height {
		d.prev = make([]byte, rowBytes*s.Height)
		d.size = s.Size()
		d.copyRows(s, rowBytes, 0, s.Height)
		d.valid = true
		return full
	}

	top, bottom := -1, -1
	for y := 0; y < s.Height; y++ {
		cur := s.Pix[y*s.Stride : y*s.Stride+rowBytes]
		if !bytes.Equal(cur, d.prev[y*rowBytes:(y+1)*rowBytes]) {
			if top < 0 {
				top = y
			}
			bottom = y + 1
		}
	}
	if top < 0 {
		return image.Rectangle{}
	}
	d.copyRows(s, rowBytes, top, bottom)
	return image.Rect(0, top, s.Width, bottom)
}

func (d *DamageTracker) copyRows(s hal.Surface, rowBytes, from, to int) {
	for y := from; y < to; y++ {
		copy(d.prev[y*rowBytes:(y+1)*rowBytes], s.Pix[y*s.Stride:y*s.Stride+rowBytes])
	}
}

// Reset forgets the previous frame so the next Damage reports everything.
func (d *DamageTracker) Reset() { d.valid = false }

// Poll reads one frame from src and its damage against the previous poll.
// A source error is logged as a warning and ok is false; the tracker is left
// as it was.
func (d *DamageTracker) Poll(src Source, log hal.Logger) (s hal.Surface, damage image.Rectangle, ok bool) {
	s, err := src.Frame()
	if err != nil {
		hal.Logf(log, "warn: source: %v", err)
		return hal.Surface{}, image.Rectangle{}, false
	}
	return s, d.Damage(s), true
}
