package pipeline

import (
	"fmt"

	"spifb/hal"
)

// Mode is a display mode as advertised to the compositor. The panel has no
// scanout clock, so timings only need to be valid, not meaningful.
type Mode struct {
	Name string

	HDisplay   int
	HSyncStart int
	HSyncEnd   int
	HTotal     int

	VDisplay   int
	VSyncStart int
	VSyncEnd   int
	VTotal     int

	ClockKHz  int
	Preferred bool
}

// modeFor builds the single mode for a virtual resolution: blanking of one
// pixel and line, clocked for 60 Hz.
func modeFor(virt hal.Resolution) Mode {
	m := Mode{
		Name:       virt.String(),
		HDisplay:   virt.W,
		HSyncStart: virt.W + 1,
		HSyncEnd:   virt.W + 1,
		HTotal:     virt.W + 1,
		VDisplay:   virt.H,
		VSyncStart: virt.H + 1,
		VSyncEnd:   virt.H + 1,
		VTotal:     virt.H + 1,
		Preferred:  true,
	}
	m.ClockKHz = m.HTotal * m.VTotal * 60 / 1000
	return m
}

// Resolution returns the active area of m.
func (m Mode) Resolution() hal.Resolution {
	return hal.Resolution{W: m.HDisplay, H: m.VDisplay}
}

func (m Mode) String() string {
	s := fmt.Sprintf("%s %d kHz %d %d %d %d %d %d %d %d",
		m.Name, m.ClockKHz,
		m.HDisplay, m.HSyncStart, m.HSyncEnd, m.HTotal,
		m.VDisplay, m.VSyncStart, m.VSyncEnd, m.VTotal)
	if m.Preferred {
		s += " preferred"
	}
	return s
}

// ModeStatus is the verdict of ValidateMode.
type ModeStatus uint8

const (
	ModeOK ModeStatus = iota
	ModeBad
)

func (s ModeStatus) String() string {
	switch s {
	case ModeOK:
		return "ok"
	case ModeBad:
		return "bad"
	default:
		return fmt.Sprintf("ModeStatus(%d)", uint8(s))
	}
}
