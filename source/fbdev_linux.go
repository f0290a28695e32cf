//go:build linux

package source

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"spifb/hal"
)

const (
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
)

type fbBitfield struct {
	Offset   uint32
	Length   uint32
	MSBRight uint32
}

// fbVarInfo mirrors struct fb_var_screeninfo.
type fbVarInfo struct {
	XRes, YRes               uint32
	XResVirtual, YResVirtual uint32
	XOffset, YOffset         uint32
	BitsPerPixel             uint32
	Grayscale                uint32
	Red, Green, Blue, Transp fbBitfield
	Nonstd                   uint32
	Activate                 uint32
	Height, Width            uint32
	AccelFlags               uint32
	Pixclock                 uint32
	LeftMargin, RightMargin  uint32
	UpperMargin, LowerMargin uint32
	HsyncLen, VsyncLen       uint32
	Sync                     uint32
	Vmode                    uint32
	Rotate                   uint32
	Colorspace               uint32
	Reserved                 [4]uint32
}

// fbFixInfo mirrors struct fb_fix_screeninfo.
type fbFixInfo struct {
	ID           [16]byte
	SmemStart    uintptr
	SmemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	LineLength   uint32
	MmioStart    uintptr
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

// FBDev polls a Linux framebuffer device, typically the one a DRM driver or
// fbcon renders into.
type FBDev struct {
	f      *os.File
	mem    []byte
	res    hal.Resolution
	format hal.PixelFormat
	stride int
	base   int
	out    []byte
}

// OpenFBDev maps the framebuffer at path read-only.
func OpenFBDev(path string) (*FBDev, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	var v fbVarInfo
	var fix fbFixInfo
	if err := ioctl(f.Fd(), fbioGetVScreenInfo, unsafe.Pointer(&v)); err != nil {
		f.Close()
		return nil, fmt.Errorf("source: %s: %w", path, err)
	}
	if err := ioctl(f.Fd(), fbioGetFScreenInfo, unsafe.Pointer(&fix)); err != nil {
		f.Close()
		return nil, fmt.Errorf("source: %s: %w", path, err)
	}

	format, err := fbFormat(&v)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("source: %s: %w", path, err)
	}
	stride := int(fix.LineLength)
	base := int(v.YOffset)*stride + int(v.XOffset)*format.BytesPerPixel()
	res := hal.Resolution{W: int(v.XRes), H: int(v.YRes)}
	if need := base + stride*(res.H-1) + res.W*format.BytesPerPixel(); need > int(fix.SmemLen) {
		f.Close()
		return nil, fmt.Errorf("source: %s: visible area exceeds %d bytes of video memory", path, fix.SmemLen)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, int(fix.SmemLen), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("source: mmap %s: %w", path, err)
	}
	return &FBDev{
		f:      f,
		mem:    mem,
		res:    res,
		format: format,
		stride: stride,
		base:   base,
		out:    make([]byte, stride*res.H),
	}, nil
}

func ioctl(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
	if errno != 0 {
		return os.NewSyscallError("ioctl", errno)
	}
	return nil
}

// fbFormat maps the colour layout of v to a pixel format.
func fbFormat(v *fbVarInfo) (hal.PixelFormat, error) {
	switch {
	case v.BitsPerPixel == 16 && v.Red.Offset == 11 && v.Green.Length == 6 && v.Blue.Offset == 0:
		return hal.PixelFormatRGB565, nil
	case v.BitsPerPixel == 32 && v.Red.Offset == 16 && v.Green.Offset == 8 && v.Blue.Offset == 0:
		if v.Transp.Length > 0 {
			return hal.PixelFormatARGB8888, nil
		}
		return hal.PixelFormatXRGB8888, nil
	}
	return 0, fmt.Errorf("unsupported layout %d bpp r%d/%d g%d/%d b%d/%d",
		v.BitsPerPixel, v.Red.Offset, v.Red.Length, v.Green.Offset, v.Green.Length, v.Blue.Offset, v.Blue.Length)
}

// Size returns the visible resolution.
func (d *FBDev) Size() hal.Resolution { return d.res }

// Frame copies the visible area out of video memory.
func (d *FBDev) Frame() (hal.Surface, error) {
	row := d.res.W * d.format.BytesPerPixel()
	for y := 0; y < d.res.H; y++ {
		off := d.base + y*d.stride
		copy(d.out[y*d.stride:y*d.stride+row], d.mem[off:off+row])
	}
	return hal.Surface{
		Width:  d.res.W,
		Height: d.res.H,
		Format: d.format,
		Stride: d.stride,
		Pix:    d.out,
	}, nil
}

func (d *FBDev) Close() error {
	err := unix.Munmap(d.mem)
	if cerr := d.f.Close(); err == nil {
		err = cerr
	}
	return err
}
