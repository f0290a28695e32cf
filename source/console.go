package source

import (
	"errors"
	"image/color"
	"io"
	"sync"

	"spifb/hal"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// Console renders a VT100 byte stream onto a canvas, like a text console on
// the panel. Input is consumed on its own goroutine.
type Console struct {
	mu  sync.Mutex
	c   *Canvas
	t   *tinyterm.Terminal
	err error

	in   io.Reader
	done chan struct{}
}

// NewConsole starts reading r. Closing r (or EOF) ends the reader; the last
// picture remains available.
func NewConsole(r io.Reader, res hal.Resolution) *Console {
	con := &Console{
		c:    NewCanvas(res, hal.PixelFormatRGB565),
		in:   r,
		done: make(chan struct{}),
	}
	con.reset()
	if r != nil {
		go con.read()
	} else {
		close(con.done)
	}
	return con
}

func (con *Console) reset() {
	font := &proggy.TinySZ8pt7b
	h := int16(font.YAdvance)
	con.c.Clear(color.RGBA{A: 0xFF})
	con.t = tinyterm.NewTerminal(con.c)
	con.t.Configure(&tinyterm.Config{
		Font:       font,
		FontHeight: h,
		FontOffset: h - h/4,
	})
}

func (con *Console) read() {
	defer close(con.done)
	buf := make([]byte, 512)
	for {
		n, err := con.in.Read(buf)
		if n > 0 {
			_, _ = con.Write(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				con.mu.Lock()
				con.err = err
				con.mu.Unlock()
			}
			return
		}
	}
}

// Write feeds p to the terminal.
func (con *Console) Write(p []byte) (int, error) {
	con.mu.Lock()
	defer con.mu.Unlock()
	return con.t.Write(p)
}

// Frame returns the screen as it is now.
func (con *Console) Frame() (hal.Surface, error) {
	con.mu.Lock()
	defer con.mu.Unlock()
	if con.err != nil {
		err := con.err
		con.err = nil
		return con.c.Snapshot(), err
	}
	return con.c.Snapshot(), nil
}

// Done is closed when the input stream ends.
func (con *Console) Done() <-chan struct{} { return con.done }

// Close closes the input if it is closable.
func (con *Console) Close() error {
	if c, ok := con.in.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
