// Package fbconv converts source surfaces into the big-endian RGB565 frames
// the display expects.
//
// Two kernels exist: Direct maps pixels 1:1 and Scale resamples with nearest
// neighbour, picking source row y*VH/H and column x*VW/W for destination
// (x, y). Both write only into the destination and allocate nothing.
package fbconv

import (
	"errors"

	"spifb/hal"
)

var (
	// ErrUnsupportedFormat is returned for a source format not in Formats.
	ErrUnsupportedFormat = errors.New("fbconv: unsupported pixel format")
	// ErrGeometry is returned when source, destination and resolutions disagree.
	ErrGeometry = errors.New("fbconv: geometry mismatch")
)

var formats = [...]hal.PixelFormat{
	hal.PixelFormatRGB565,
	hal.PixelFormatXRGB8888,
	hal.PixelFormatARGB8888,
}

// Formats lists the source formats the kernels accept.
func Formats() []hal.PixelFormat {
	out := make([]hal.PixelFormat, len(formats))
	copy(out, formats[:])
	return out
}

// Supported reports whether f can be converted.
func Supported(f hal.PixelFormat) bool {
	for _, s := range formats {
		if s == f {
			return true
		}
	}
	return false
}

// Convert writes src into dst as a phys-sized big-endian RGB565 frame. src
// must be virt-sized. When virt equals phys the frame is converted 1:1,
// otherwise it is scaled.
//
// An unsupported format or a geometry mismatch leaves dst untouched.
func Convert(dst []byte, src hal.Surface, virt, phys hal.Resolution) error {
	if !Supported(src.Format) {
		return ErrUnsupportedFormat
	}
	if src.Width != virt.W || src.Height != virt.H {
		return ErrGeometry
	}
	if virt == phys {
		return Direct(dst, src)
	}
	return Scale(dst, src, phys)
}

// Direct converts src pixel for pixel; dst must hold exactly one frame of
// src's size.
func Direct(dst []byte, src hal.Surface) error {
	if !Supported(src.Format) {
		return ErrUnsupportedFormat
	}
	if err := checkGeometry(dst, src, src.Size()); err != nil {
		return err
	}

	w, h := src.Width, src.Height
	switch src.Format {
	case hal.PixelFormatRGB565:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*2]
			out := dst[y*w*2 : (y+1)*w*2]
			for x := 0; x < len(row); x += 2 {
				out[x] = row[x+1]
				out[x+1] = row[x]
			}
		}
	case hal.PixelFormatXRGB8888, hal.PixelFormatARGB8888:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			out := dst[y*w*2 : (y+1)*w*2]
			for x := 0; x < w; x++ {
				put565(out[x*2:], row[x*4:])
			}
		}
	}
	return nil
}

// Scale resamples src to phys with nearest neighbour. src must be at least
// phys in each dimension.
func Scale(dst []byte, src hal.Surface, phys hal.Resolution) error {
	if !Supported(src.Format) {
		return ErrUnsupportedFormat
	}
	if src.Width < phys.W || src.Height < phys.H {
		return ErrGeometry
	}
	if err := checkGeometry(dst, src, phys); err != nil {
		return err
	}

	w, h := phys.W, phys.H
	vw, vh := src.Width, src.Height
	switch src.Format {
	case hal.PixelFormatRGB565:
		for y := 0; y < h; y++ {
			sy := y * vh / h
			row := src.Pix[sy*src.Stride : sy*src.Stride+vw*2]
			out := dst[y*w*2 : (y+1)*w*2]
			for x := 0; x < w; x++ {
				sx := x * vw / w
				out[x*2] = row[sx*2+1]
				out[x*2+1] = row[sx*2]
			}
		}
	case hal.PixelFormatXRGB8888, hal.PixelFormatARGB8888:
		for y := 0; y < h; y++ {
			sy := y * vh / h
			row := src.Pix[sy*src.Stride : sy*src.Stride+vw*4]
			out := dst[y*w*2 : (y+1)*w*2]
			for x := 0; x < w; x++ {
				sx := x * vw / w
				put565(out[x*2:], row[sx*4:])
			}
		}
	}
	return nil
}

// put565 packs one little-endian XRGB8888 sample (B, G, R, X) into big-endian
// RGB565.
func put565(out, px []byte) {
	v := hal.RGB565(px[2], px[1], px[0])
	out[0] = byte(v >> 8)
	out[1] = byte(v)
}

func checkGeometry(dst []byte, src hal.Surface, phys hal.Resolution) error {
	if phys.W <= 0 || phys.H <= 0 || len(dst) != phys.FrameBytes() {
		return ErrGeometry
	}
	bpp := src.Format.BytesPerPixel()
	if src.Width <= 0 || src.Height <= 0 || src.Stride < src.Width*bpp {
		return ErrGeometry
	}
	if len(src.Pix) < (src.Height-1)*src.Stride+src.Width*bpp {
		return ErrGeometry
	}
	return nil
}
