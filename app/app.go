// Package app wires configuration, link, source and pipeline together and
// runs the frame loop.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-errors/errors"

	"spifb/config"
	"spifb/hal"
	"spifb/pipeline"
	"spifb/source"
)

// Link is an opened transport plus what is needed to show and release it.
type Link struct {
	hal.Link
	Name string
	// Preview is set for the emulated panel; its window must be run on the
	// main goroutine.
	Preview *hal.PreviewLink

	close func() error
}

// Close releases the transport. It returns hal.ErrCloseTimeout when the
// transport is stuck; the process may still exit.
func (l *Link) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}

// OpenLink builds the transport named by cfg.Link.
func OpenLink(cfg config.Config) (*Link, error) {
	switch cfg.Link {
	case config.LinkSPI:
		l, err := hal.OpenSPI(hal.SPIConfig{
			Port:    cfg.Bus,
			SpeedHz: cfg.SpeedHz,
			Mode:    cfg.SPIMode,
			MaxTx:   cfg.MaxTx,
		})
		if err != nil {
			return nil, errors.WrapPrefix(err, "open link", 0)
		}
		l.SetCloseTimeout(cfg.DrainTimeout)
		return &Link{Link: l, Name: l.String(), close: l.Close}, nil

	case config.LinkPreview:
		p := hal.NewPreviewLink(cfg.Phys, cfg.SpeedHz, cfg.MaxTx)
		a := hal.NewAsyncLink(p)
		a.SetCloseTimeout(cfg.DrainTimeout)
		return &Link{
			Link:    a,
			Name:    fmt.Sprintf("preview %s", cfg.Phys),
			Preview: p,
			close: func() error {
				_ = p.Close()
				return a.Close()
			},
		}, nil

	case config.LinkNull:
		n := hal.NewNullLink(cfg.SpeedHz, cfg.MaxTx)
		a := hal.NewAsyncLink(n)
		a.SetCloseTimeout(cfg.DrainTimeout)
		return &Link{Link: a, Name: "null", close: a.Close}, nil
	}
	return nil, errors.Errorf("open link: unknown kind %q", cfg.Link)
}

// Banner is the one-line startup summary.
func Banner(c *pipeline.Controller, link string) string {
	return fmt.Sprintf("spifb: %s (virtual %s) @ %s", c.Physical(), c.Virtual(), link)
}

// LoopConfig paces Run.
type LoopConfig struct {
	FPS int
	// Frames stops the loop after that many polls, 0 runs until ctx ends.
	Frames uint64
}

// Run polls src at cfg.FPS and feeds the controller. The first frame enables
// streaming; later frames are sent when they differ from the previous one.
// On exit the controller is disabled, which waits a bounded time for the
// last transfer. Run returns ctx.Err() when cancelled and nil when the frame
// budget is spent.
func Run(ctx context.Context, ctrl *pipeline.Controller, src source.Source, cfg LoopConfig, log hal.Logger) (err error) {
	defer recoverPanic(log, &err)

	if cfg.FPS <= 0 {
		return errors.Errorf("run: invalid fps %d", cfg.FPS)
	}
	d := time.Second / time.Duration(cfg.FPS)
	t := time.NewTicker(d)
	defer t.Stop()

	defer func() {
		_ = ctrl.Disable()
		st := ctrl.Stats()
		hal.Logf(log, "pipeline: %d frames, %d bytes, %d idle, %d skipped, %d tx errors, %d drain timeouts",
			st.Frames, st.Bytes, st.Idle, st.Skipped, st.TxErrors, st.DrainTimeouts)
	}()

	var dmg source.DamageTracker
	var polls uint64
	for {
		s, damage, ok := dmg.Poll(src, log)
		switch {
		case !ok:
		case ctrl.State() == pipeline.Disabled:
			if err := ctrl.Enable(ctx, s); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				hal.Logf(log, "warn: %v", err)
			}
		default:
			if err := ctrl.Update(ctx, s, damage); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				hal.Logf(log, "warn: %v", err)
			}
		}

		polls++
		if cfg.Frames > 0 && polls >= cfg.Frames {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
