// Package pipeline drives frames from a compositor surface to the panel.
//
// Every non-empty update re-converts and re-sends the whole frame: the panel
// latches one complete raster per chip-select assertion and has no way to
// address a sub-region.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"spifb/fbconv"
	"spifb/hal"
	"spifb/xfer"
)

// DefaultDrainTimeout bounds how long Disable waits for the last transfer.
const DefaultDrainTimeout = time.Second

// State is the controller lifecycle state.
type State uint8

const (
	Disabled State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Config fixes the geometry of a Controller. It is read once by New.
type Config struct {
	Phys hal.Resolution
	// Virt is the compositor resolution. Components below Phys are raised.
	Virt hal.Resolution

	DrainTimeout time.Duration
	// MaxTxSize caps transfer segments below the link's own limit.
	MaxTxSize int
	Logger    hal.Logger
}

// Stats is a snapshot of pipeline counters.
type Stats struct {
	Frames        uint64
	Bytes         uint64
	Idle          uint64 // updates with empty damage
	Skipped       uint64 // frames dropped for an unsupported format
	ConvertErrors uint64
	TxErrors      uint64
	DrainTimeouts uint64
	Segments      int
	LastWait      time.Duration
}

// Controller owns the double-buffered pipeline for one panel.
//
// It is driven from a single goroutine: Enable, Update and Disable must not
// run concurrently. Stats and State may be read from anywhere.
type Controller struct {
	phys  hal.Resolution
	virt  hal.Resolution
	mode  Mode
	sched *xfer.Scheduler
	drain time.Duration
	log   hal.Logger

	state  atomic.Uint32
	warned map[hal.PixelFormat]bool

	idle          atomic.Uint64
	skipped       atomic.Uint64
	convErrors    atomic.Uint64
	drainTimeouts atomic.Uint64
}

// New allocates the frame slots for link. Failure is fatal: the controller
// never becomes active without both slots.
func New(link hal.Link, cfg Config) (*Controller, error) {
	if cfg.Phys.W <= 0 || cfg.Phys.H <= 0 {
		return nil, fmt.Errorf("pipeline: invalid physical resolution %s", cfg.Phys)
	}
	virt := cfg.Virt.AtLeast(cfg.Phys)
	drain := cfg.DrainTimeout
	if drain <= 0 {
		drain = DefaultDrainTimeout
	}

	sched, err := xfer.NewScheduler(link, cfg.Phys.FrameBytes(), xfer.Options{
		MaxTxSize: cfg.MaxTxSize,
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	return &Controller{
		phys:   cfg.Phys,
		virt:   virt,
		mode:   modeFor(virt),
		sched:  sched,
		drain:  drain,
		log:    cfg.Logger,
		warned: make(map[hal.PixelFormat]bool),
	}, nil
}

// Physical returns the panel resolution.
func (c *Controller) Physical() hal.Resolution { return c.phys }

// Virtual returns the compositor resolution after clamping.
func (c *Controller) Virtual() hal.Resolution { return c.virt }

// Modes returns the single supported mode.
func (c *Controller) Modes() []Mode { return []Mode{c.mode} }

// ValidateMode accepts only modes matching the virtual resolution.
func (c *Controller) ValidateMode(m Mode) ModeStatus {
	if m.HDisplay != c.virt.W || m.VDisplay != c.virt.H {
		return ModeBad
	}
	return ModeOK
}

// Formats lists the source formats Update can convert.
func (c *Controller) Formats() []hal.PixelFormat { return fbconv.Formats() }

// State returns the current lifecycle state.
func (c *Controller) State() State { return State(c.state.Load()) }

// Enable starts streaming and sends s as the initial frame.
func (c *Controller) Enable(ctx context.Context, s hal.Surface) error {
	if c.State() == Active {
		return nil
	}
	c.state.Store(uint32(Active))
	hal.Logf(c.log, "pipeline: enabled %s (virtual %s), %d segments per frame",
		c.phys, c.virt, c.sched.Stats().Segments)
	return c.send(ctx, s)
}

// Update sends s if damage is non-empty. The whole frame goes out however
// small damage is. Updates while disabled are ignored.
func (c *Controller) Update(ctx context.Context, s hal.Surface, damage image.Rectangle) error {
	if c.State() != Active {
		return nil
	}
	if damage.Empty() {
		c.idle.Add(1)
		return nil
	}
	return c.send(ctx, s)
}

func (c *Controller) send(ctx context.Context, s hal.Surface) error {
	err := fbconv.Convert(c.sched.WriteTarget(), s, c.virt, c.phys)
	switch {
	case errors.Is(err, fbconv.ErrUnsupportedFormat):
		// Skip rather than resend the stale slot.
		c.skipped.Add(1)
		if !c.warned[s.Format] {
			c.warned[s.Format] = true
			hal.Logf(c.log, "warn: pipeline: dropping frames in unsupported format %s", s.Format)
		}
		return nil
	case err != nil:
		c.convErrors.Add(1)
		return fmt.Errorf("pipeline: convert: %w", err)
	}

	if err := c.sched.Submit(ctx); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

// Disable stops conversion and waits, bounded by the drain timeout, for the
// transfer in flight. Teardown may proceed whatever it returns.
func (c *Controller) Disable() error {
	if c.State() == Disabled {
		return nil
	}
	c.state.Store(uint32(Disabled))

	err := c.sched.Drain(c.drain)
	switch {
	case errors.Is(err, xfer.ErrDrainTimeout):
		c.drainTimeouts.Add(1)
		hal.Logf(c.log, "warn: pipeline: transfer still in flight after %v, tearing down", c.drain)
	case err != nil:
		hal.Logf(c.log, "warn: pipeline: last transfer failed: %v", err)
	default:
		hal.Logf(c.log, "pipeline: disabled")
	}
	return err
}

// Stats returns current counters.
func (c *Controller) Stats() Stats {
	ss := c.sched.Stats()
	return Stats{
		Frames:        ss.Frames,
		Bytes:         ss.Bytes,
		Idle:          c.idle.Load(),
		Skipped:       c.skipped.Load(),
		ConvertErrors: c.convErrors.Load(),
		TxErrors:      ss.TxErrors,
		DrainTimeouts: c.drainTimeouts.Load(),
		Segments:      ss.Segments,
		LastWait:      ss.LastWait,
	}
}
