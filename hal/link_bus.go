package hal

import (
	"errors"

	"tinygo.org/x/drivers"
)

// BusLink transmits frames over a TinyGo-style SPI bus, one Tx per segment,
// with chip select held low for the whole frame.
type BusLink struct {
	bus   drivers.SPI
	cs    Pin
	maxTx int
}

// NewBusLink wraps bus. cs may be nil when the select line is hard-wired or
// driven by the bus itself. maxTx of 0 means the bus takes any length.
func NewBusLink(bus drivers.SPI, cs Pin, maxTx int) *BusLink {
	if maxTx < 0 {
		maxTx = 0
	}
	if cs != nil {
		cs.High()
	}
	return &BusLink{bus: bus, cs: cs, maxTx: maxTx}
}

func (l *BusLink) MaxTxSize() int { return l.maxTx }

func (l *BusLink) Tx(segs [][]byte) error {
	if l.bus == nil {
		return errors.New("spi bus unavailable")
	}
	if l.cs != nil {
		l.cs.Low()
		defer l.cs.High()
	}
	for _, seg := range segs {
		if l.maxTx > 0 && len(seg) > l.maxTx {
			return errors.New("segment exceeds bus transfer limit")
		}
		if err := l.bus.Tx(seg, nil); err != nil {
			return err
		}
	}
	return nil
}
