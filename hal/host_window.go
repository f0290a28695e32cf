//go:build cgo && !tinygo

package hal

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunPreview opens a desktop window that shows what the emulated display
// latched. It blocks until the window closes or p is closed, and must run on
// the main goroutine.
func RunPreview(p *PreviewLink, title string, scale int) error {
	if scale <= 0 {
		scale = 2
	}
	g := &previewGame{p: p}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(p.res.W*scale, p.res.H*scale)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type previewGame struct {
	p       *PreviewLink
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
	seen    uint64
}

func (g *previewGame) Update() error {
	if g.p.closed.Load() {
		return ebiten.Termination
	}
	return nil
}

func (g *previewGame) Draw(screen *ebiten.Image) {
	res := g.p.res
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, res.W, res.H))
		g.scratch = make([]byte, res.FrameBytes())
		g.fbImg = ebiten.NewImage(res.W, res.H)
	}

	if n := g.p.Frames(); n != g.seen {
		g.seen = n
		g.p.Snapshot(g.scratch)
		decodeBE565(g.img.Pix, g.scratch)
		g.fbImg.WritePixels(g.img.Pix)
	}
	screen.DrawImage(g.fbImg, nil)
}

func (g *previewGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.p.res.W, g.p.res.H
}
