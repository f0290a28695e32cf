//go:build tinygo && rp2040

// Command spifb-mcu drives a panel from an RP2040 acting as SPI master. It
// streams the test pattern and is meant for bench-testing a receiver without
// a Linux host.
package main

import (
	"context"
	"machine"
	"time"

	"spifb/hal"
	"spifb/pipeline"
	"spifb/source"
)

// Two 160x120 slots plus the pattern canvas fit in RP2040 SRAM.
var panel = hal.Resolution{W: 160, H: 120}

const (
	spiHz   = 24_000_000
	chunk   = 4096
	fps     = 10
	csPin   = machine.GP17
	sckPin  = machine.GP18
	sdoPin  = machine.GP19
	sdiPin  = machine.GP16
	ledPin  = machine.LED
	blinkOn = 50 * time.Millisecond
)

func main() {
	log := hal.NewLogger(machine.Serial)

	led := ledPin
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	if err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: spiHz,
		SCK:       sckPin,
		SDO:       sdoPin,
		SDI:       sdiPin,
		Mode:      0,
	}); err != nil {
		halt(log, led, err)
	}
	cs := csPin
	cs.Configure(machine.PinConfig{Mode: machine.PinOutput})

	link := hal.NewAsyncLink(hal.NewBusLink(machine.SPI0, cs, chunk))
	ctrl, err := pipeline.New(link, pipeline.Config{Phys: panel, Virt: panel, Logger: log})
	if err != nil {
		halt(log, led, err)
	}
	hal.Logf(log, "spifb: %s @ SPI0 %d Hz", ctrl.Physical(), spiHz)

	ctx := context.Background()
	src := source.NewPattern(panel)
	var dmg source.DamageTracker
	tick := time.NewTicker(time.Second / fps)
	for range tick.C {
		s, damage, ok := dmg.Poll(src, log)
		if !ok {
			continue
		}
		var err error
		if ctrl.State() == pipeline.Disabled {
			err = ctrl.Enable(ctx, s)
		} else {
			err = ctrl.Update(ctx, s, damage)
		}
		if err != nil {
			hal.Logf(log, "warn: %v", err)
		}
		led.Set(ctrl.Stats().Frames%2 == 0)
	}
}

// halt reports err and blinks the LED forever.
func halt(log hal.Logger, led machine.Pin, err error) {
	hal.Logf(log, "spifb: %v", err)
	for {
		led.High()
		time.Sleep(blinkOn)
		led.Low()
		time.Sleep(time.Second)
	}
}
