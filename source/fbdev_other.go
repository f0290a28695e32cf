//go:build !linux

package source

import (
	"spifb/hal"
)

// FBDev is only available on Linux.
type FBDev struct{}

func OpenFBDev(path string) (*FBDev, error) { return nil, hal.ErrNotImplemented }

func (d *FBDev) Size() hal.Resolution { return hal.Resolution{} }

func (d *FBDev) Frame() (hal.Surface, error) { return hal.Surface{}, hal.ErrNotImplemented }

func (d *FBDev) Close() error { return nil }
