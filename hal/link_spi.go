//go:build !tinygo

package hal

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPIConfig selects a userspace SPI port.
type SPIConfig struct {
	Port    string // spireg name, "" for the first port
	SpeedHz int64
	Mode    int
	MaxTx   int // 0 = use the port limit
}

// spiLink sends a frame as one spidev message: a packet per segment with
// chip select held across packets, so the slave sees one assertion per frame.
type spiLink struct {
	port  spi.PortCloser
	conn  spi.Conn
	maxTx int
	pkts  []spi.Packet
}

// SPILink is an asynchronous link over a periph.io SPI port.
type SPILink struct {
	*AsyncLink
	spi *spiLink
}

// OpenSPI initialises the host drivers and connects to the configured port.
func OpenSPI(cfg SPIConfig) (*SPILink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("spi: host init: %w", err)
	}
	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("spi: open %q: %w", cfg.Port, err)
	}
	c, err := port.Connect(physic.Frequency(cfg.SpeedHz)*physic.Hertz, spi.Mode(cfg.Mode), 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("spi: connect %q: %w", cfg.Port, err)
	}

	maxTx := cfg.MaxTx
	if lim, ok := c.(conn.Limits); ok {
		if n := lim.MaxTxSize(); n > 0 && (maxTx <= 0 || n < maxTx) {
			maxTx = n
		}
	}

	l := &spiLink{port: port, conn: c, maxTx: maxTx}
	return &SPILink{AsyncLink: NewAsyncLink(l), spi: l}, nil
}

func (l *spiLink) MaxTxSize() int { return l.maxTx }

func (l *spiLink) Tx(segs [][]byte) error {
	l.pkts = l.pkts[:0]
	for i, seg := range segs {
		l.pkts = append(l.pkts, spi.Packet{W: seg, KeepCS: i < len(segs)-1})
	}
	return l.conn.TxPackets(l.pkts)
}

// String names the port for logs.
func (l *SPILink) String() string { return l.spi.conn.String() }

// Close stops the worker and releases the port. The port is released even
// when the worker is stuck; ErrCloseTimeout is then returned.
func (l *SPILink) Close() error {
	err := l.AsyncLink.Close()
	if perr := l.spi.port.Close(); err == nil {
		err = perr
	}
	return err
}
