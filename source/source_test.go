package source

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spifb/hal"

	"tinygo.org/x/drivers"
)

var red = color.RGBA{R: 0xFF, A: 0xFF}

func TestCanvasSetPixelFormats(t *testing.T) {
	res := hal.Resolution{W: 4, H: 2}

	c := NewCanvas(res, hal.PixelFormatRGB565)
	c.SetPixel(1, 1, red)
	c.SetPixel(-1, 0, red)
	c.SetPixel(4, 0, red)
	s := c.Snapshot()
	if s.Format != hal.PixelFormatRGB565 || s.Stride != 8 {
		t.Fatalf("Snapshot() format=%s stride=%d", s.Format, s.Stride)
	}
	if got := binary.LittleEndian.Uint16(s.Pix[1*8+1*2:]); got != 0xF800 {
		t.Fatalf("pixel = %#04x, want 0xf800", got)
	}
	if n := bytes.Count(s.Pix, []byte{0}); n != len(s.Pix)-1 {
		t.Fatalf("out-of-bounds writes landed: % x", s.Pix)
	}

	c = NewCanvas(res, hal.PixelFormatXRGB8888)
	c.SetPixel(0, 0, color.RGBA{R: 1, G: 2, B: 3})
	s = c.Snapshot()
	if !bytes.Equal(s.Pix[:4], []byte{3, 2, 1, 0xFF}) {
		t.Fatalf("xrgb pixel = % x, want 03 02 01 ff", s.Pix[:4])
	}
	if x, y := c.Size(); x != 4 || y != 2 {
		t.Fatalf("Size() = %d,%d", x, y)
	}
}

func TestCanvasFillRectangleClips(t *testing.T) {
	c := NewCanvas(hal.Resolution{W: 4, H: 4}, hal.PixelFormatRGB565)
	if err := c.FillRectangle(2, 2, 10, 10, red); err != nil {
		t.Fatalf("FillRectangle() = %v", err)
	}
	if err := c.FillRectangle(-5, -5, 2, 2, red); err != nil {
		t.Fatalf("FillRectangle(outside) = %v", err)
	}
	s := c.Snapshot()
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got := binary.LittleEndian.Uint16(s.Pix[y*s.Stride+x*2:])
			want := uint16(0)
			if x >= 2 && y >= 2 {
				want = 0xF800
			}
			if got != want {
				t.Fatalf("(%d,%d) = %#04x, want %#04x", x, y, got, want)
			}
		}
	}
}

func TestCanvasScrollRotatesRows(t *testing.T) {
	c := NewCanvas(hal.Resolution{W: 1, H: 4}, hal.PixelFormatRGB565)
	for y := 0; y < 4; y++ {
		c.SetPixel(0, int16(y), color.RGBA{R: uint8(y * 64)})
	}
	c.SetScroll(1)
	s := c.Snapshot()
	for y := 0; y < 4; y++ {
		want := hal.RGB565(uint8(((y+1)%4)*64), 0, 0)
		if got := binary.LittleEndian.Uint16(s.Pix[y*2:]); got != want {
			t.Fatalf("row %d = %#04x, want %#04x", y, got, want)
		}
	}
	c.SetScroll(-1)
	if c.scroll != 3 {
		t.Fatalf("SetScroll(-1) = %d, want 3", c.scroll)
	}
	c.Clear(color.RGBA{})
	if c.scroll != 0 {
		t.Fatal("Clear() kept the scroll offset")
	}
	if err := c.SetRotation(drivers.Rotation90); err == nil {
		t.Fatal("SetRotation(90) succeeded")
	}
	if err := c.SetRotation(drivers.Rotation0); err != nil {
		t.Fatalf("SetRotation(0) = %v", err)
	}
}

func TestDamageTracker(t *testing.T) {
	c := NewCanvas(hal.Resolution{W: 8, H: 6}, hal.PixelFormatXRGB8888)
	var d DamageTracker

	if got := d.Damage(c.Snapshot()); got != image.Rect(0, 0, 8, 6) {
		t.Fatalf("first Damage() = %v, want full frame", got)
	}
	if got := d.Damage(c.Snapshot()); !got.Empty() {
		t.Fatalf("unchanged Damage() = %v, want empty", got)
	}

	c.SetPixel(5, 2, red)
	c.SetPixel(0, 4, red)
	if got := d.Damage(c.Snapshot()); got != image.Rect(0, 2, 8, 5) {
		t.Fatalf("Damage() = %v, want rows 2-4 full width", got)
	}
	if got := d.Damage(c.Snapshot()); !got.Empty() {
		t.Fatalf("Damage() after update = %v, want empty", got)
	}

	d.Reset()
	if got := d.Damage(c.Snapshot()); got != image.Rect(0, 0, 8, 6) {
		t.Fatalf("Damage() after Reset = %v, want full frame", got)
	}

	other := NewCanvas(hal.Resolution{W: 4, H: 4}, hal.PixelFormatXRGB8888)
	if got := d.Damage(other.Snapshot()); got != image.Rect(0, 0, 4, 4) {
		t.Fatalf("Damage() on resize = %v, want full frame", got)
	}
}

type flakySource struct {
	canvas *Canvas
	fail   bool
}

func (f *flakySource) Frame() (hal.Surface, error) {
	if f.fail {
		return hal.Surface{}, io.ErrUnexpectedEOF
	}
	return f.canvas.Snapshot(), nil
}

func (f *flakySource) Close() error { return nil }

func TestDamageTrackerPoll(t *testing.T) {
	var buf bytes.Buffer
	log := hal.NewLogger(&buf)
	src := &flakySource{canvas: NewCanvas(hal.Resolution{W: 8, H: 6}, hal.PixelFormatXRGB8888)}
	var d DamageTracker

	s, damage, ok := d.Poll(src, log)
	if !ok || s.Size() != (hal.Resolution{W: 8, H: 6}) || damage != image.Rect(0, 0, 8, 6) {
		t.Fatalf("Poll() = %v, %v, %v, want full first frame", s.Size(), damage, ok)
	}

	src.fail = true
	if _, damage, ok := d.Poll(src, log); ok || !damage.Empty() {
		t.Fatalf("Poll() on source error = %v, %v, want not ok", damage, ok)
	}
	if !strings.Contains(buf.String(), "warn: source: unexpected EOF") {
		t.Fatalf("log = %q, want source warning", buf.String())
	}

	src.fail = false
	if _, damage, ok := d.Poll(src, log); !ok || !damage.Empty() {
		t.Fatalf("Poll() after error = %v, %v, want unchanged frame", damage, ok)
	}
}

func TestPatternFrames(t *testing.T) {
	res := hal.Resolution{W: 480, H: 360}
	p := NewPattern(res)
	defer p.Close()

	var d DamageTracker
	for i := 0; i < 3; i++ {
		s, err := p.Frame()
		if err != nil {
			t.Fatalf("Frame() = %v", err)
		}
		if s.Size() != res || s.Format != hal.PixelFormatXRGB8888 || len(s.Pix) != res.W*res.H*4 {
			t.Fatalf("Frame() = %dx%d %s, %d bytes", s.Width, s.Height, s.Format, len(s.Pix))
		}
		if dmg := d.Damage(s); dmg.Empty() {
			t.Fatalf("frame %d identical to the previous one", i)
		}
	}
}

func TestConsoleDrawsText(t *testing.T) {
	res := hal.Resolution{W: 160, H: 120}
	pr, pw := io.Pipe()
	con := NewConsole(pr, res)

	blank, _ := con.Frame()
	before := append([]byte(nil), blank.Pix...)

	if _, err := pw.Write([]byte("hello\r\n")); err != nil {
		t.Fatalf("Write() = %v", err)
	}
	pw.Close()

	select {
	case <-con.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("console reader did not finish")
	}
	s, err := con.Frame()
	if err != nil {
		t.Fatalf("Frame() = %v", err)
	}
	if s.Size() != res || s.Format != hal.PixelFormatRGB565 {
		t.Fatalf("Frame() = %s %s", s.Size(), s.Format)
	}
	if bytes.Equal(before, s.Pix) {
		t.Fatal("text left no pixels on the console")
	}
	if err := con.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
}

func TestStillLetterboxes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 10))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i+0] = 0xFF
		src.Pix[i+3] = 0xFF
	}
	res := hal.Resolution{W: 40, H: 40}
	st := NewStill(src, res)
	s, _ := st.Frame()

	if s.Format != hal.PixelFormatXRGB8888 || s.Size() != res {
		t.Fatalf("Frame() = %s %s", s.Size(), s.Format)
	}
	px := func(x, y int) []byte { return s.Pix[y*s.Stride+x*4 : y*s.Stride+x*4+4] }
	if !bytes.Equal(px(20, 0), []byte{0, 0, 0, 0xFF}) {
		t.Fatalf("letterbox pixel = % x, want black", px(20, 0))
	}
	if got := px(20, 20); got[2] < 0xF0 || got[0] != 0 {
		t.Fatalf("image pixel = % x, want red", got)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		src  image.Point
		res  hal.Resolution
		want image.Rectangle
	}{
		{image.Pt(640, 480), hal.Resolution{W: 480, H: 360}, image.Rect(0, 0, 480, 360)},
		{image.Pt(100, 100), hal.Resolution{W: 480, H: 360}, image.Rect(60, 0, 420, 360)},
		{image.Pt(400, 100), hal.Resolution{W: 400, H: 400}, image.Rect(0, 150, 400, 250)},
		{image.Pt(0, 10), hal.Resolution{W: 4, H: 4}, image.Rectangle{}},
	}
	for _, tt := range tests {
		if got := fit(tt.src, tt.res); got != tt.want {
			t.Fatalf("fit(%v, %s) = %v, want %v", tt.src, tt.res, got, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	res := hal.Resolution{W: 32, H: 24}

	s, err := Open("pattern", res)
	if err != nil {
		t.Fatalf("Open(pattern) = %v", err)
	}
	s.Close()

	path := filepath.Join(t.TempDir(), "dot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatal(err)
	}
	f.Close()
	s, err = Open("image:"+path, res)
	if err != nil {
		t.Fatalf("Open(image) = %v", err)
	}
	if fr, _ := s.Frame(); fr.Size() != res {
		t.Fatalf("image frame = %s, want %s", fr.Size(), res)
	}

	for _, name := range []string{"image:" + path + ".missing", "webcam", "fbdev:/nonexistent/fb0"} {
		if s, err := Open(name, res); err == nil || s != nil {
			t.Fatalf("Open(%q) = %v, %v, want error", name, s, err)
		}
	}
	if _, err := Open("camera", res); err == nil || !strings.Contains(err.Error(), "camera") {
		t.Fatalf("Open(camera) error = %v", err)
	}
}
