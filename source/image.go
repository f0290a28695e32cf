package source

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"spifb/hal"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Still shows one picture forever.
type Still struct {
	s hal.Surface
}

// LoadImage decodes the file at path and fits it to res, letterboxed on
// black with its aspect ratio kept.
func LoadImage(path string, res hal.Resolution) (*Still, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("source: decode %s: %w", path, err)
	}
	return NewStill(img, res), nil
}

// NewStill fits img to res.
func NewStill(img image.Image, res hal.Resolution) *Still {
	dst := image.NewRGBA(image.Rect(0, 0, res.W, res.H))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, fit(img.Bounds().Size(), res), img, img.Bounds(), draw.Over, nil)
	return &Still{s: xrgbFromRGBA(dst)}
}

// fit centres a box of size src scaled to fill res without cropping.
func fit(src image.Point, res hal.Resolution) image.Rectangle {
	if src.X <= 0 || src.Y <= 0 {
		return image.Rectangle{}
	}
	w, h := res.W, src.Y*res.W/src.X
	if h > res.H {
		w, h = src.X*res.H/src.Y, res.H
	}
	x0 := (res.W - w) / 2
	y0 := (res.H - h) / 2
	return image.Rect(x0, y0, x0+w, y0+h)
}

func xrgbFromRGBA(img *image.RGBA) hal.Surface {
	b := img.Bounds()
	s := hal.Surface{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: hal.PixelFormatXRGB8888,
		Stride: b.Dx() * 4,
		Pix:    make([]byte, b.Dx()*b.Dy()*4),
	}
	for y := 0; y < s.Height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+s.Stride]
		dst := s.Pix[y*s.Stride : (y+1)*s.Stride]
		for x := 0; x < len(src); x += 4 {
			dst[x+0] = src[x+2]
			dst[x+1] = src[x+1]
			dst[x+2] = src[x+0]
			dst[x+3] = 0xFF
		}
	}
	return s
}

func (s *Still) Frame() (hal.Surface, error) { return s.s, nil }

func (s *Still) Close() error { return nil }
