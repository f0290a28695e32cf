// Package config loads the streamer settings: defaults, then a params file,
// then command-line flags. The result is immutable once loaded.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"periph.io/x/conn/v3/physic"

	"spifb/hal"
)

var (
	ErrUnknownKey = errors.New("config: unknown key")
	ErrBadValue   = errors.New("config: bad value")
)

// Link kinds.
const (
	LinkSPI     = "spi"
	LinkPreview = "preview"
	LinkNull    = "null"
)

// Config holds every tunable of the streamer.
type Config struct {
	Phys hal.Resolution
	Virt hal.Resolution

	Bus     string // periph SPI port, e.g. "SPI0.0"
	SpeedHz int64
	SPIMode int
	MaxTx   int // 0 = ask the link

	FPS          int
	DrainTimeout time.Duration

	Link   string
	Source string
}

// Default returns the stock 320x240 panel rendered at 480x360.
func Default() Config {
	return Config{
		Phys:         hal.Resolution{W: 320, H: 240},
		Virt:         hal.Resolution{W: 480, H: 360},
		Bus:          "SPI0.0",
		SpeedHz:      62_500_000,
		FPS:          30,
		DrainTimeout: time.Second,
		Link:         LinkSPI,
		Source:       "pattern",
	}
}

// Clamp raises the virtual resolution to at least the physical one.
func (c *Config) Clamp() {
	c.Virt = c.Virt.AtLeast(c.Phys)
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{
		"width", "height", "vwidth", "vheight",
		"bus", "speed", "mode", "max-tx",
		"fps", "drain", "link", "source",
	}
}

// Get returns the current value of key formatted the way Set parses it.
func (c *Config) Get(key string) (string, error) {
	switch normKey(key) {
	case "width":
		return strconv.Itoa(c.Phys.W), nil
	case "height":
		return strconv.Itoa(c.Phys.H), nil
	case "vwidth":
		return strconv.Itoa(c.Virt.W), nil
	case "vheight":
		return strconv.Itoa(c.Virt.H), nil
	case "bus":
		return c.Bus, nil
	case "speed":
		return strconv.FormatInt(c.SpeedHz, 10), nil
	case "mode":
		return strconv.Itoa(c.SPIMode), nil
	case "max-tx":
		return strconv.Itoa(c.MaxTx), nil
	case "fps":
		return strconv.Itoa(c.FPS), nil
	case "drain":
		return c.DrainTimeout.String(), nil
	case "link":
		return c.Link, nil
	case "source":
		return c.Source, nil
	}
	return "", errors.Errorf("%w %q", ErrUnknownKey, key)
}

// Set parses value into key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	var err error
	switch normKey(key) {
	case "width":
		c.Phys.W, err = parseDim(value)
	case "height":
		c.Phys.H, err = parseDim(value)
	case "vwidth":
		c.Virt.W, err = parseDim(value)
	case "vheight":
		c.Virt.H, err = parseDim(value)
	case "bus":
		c.Bus = value
	case "speed":
		c.SpeedHz, err = parseHz(value)
	case "mode":
		c.SPIMode, err = strconv.Atoi(value)
	case "max-tx":
		c.MaxTx, err = strconv.Atoi(value)
	case "fps":
		c.FPS, err = strconv.Atoi(value)
	case "drain":
		c.DrainTimeout, err = time.ParseDuration(value)
	case "link":
		c.Link = strings.ToLower(value)
	case "source":
		c.Source = value
	default:
		return errors.Errorf("%w %q", ErrUnknownKey, key)
	}
	if err != nil {
		return errors.Errorf("%w: %s=%q: %v", ErrBadValue, key, value, err)
	}
	return nil
}

func normKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "_", "-")
}

func parseDim(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 || n > 8192 {
		return 0, errors.New("out of range")
	}
	return n, nil
}

// parseHz accepts plain hertz or a periph frequency such as "62.5MHz".
func parseHz(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	var f physic.Frequency
	if err := f.Set(s); err != nil {
		return 0, err
	}
	return int64(f / physic.Hertz), nil
}

// Validate checks the loaded configuration. Call Clamp first.
func (c *Config) Validate() error {
	switch {
	case c.Phys.W <= 0 || c.Phys.H <= 0:
		return errors.Errorf("%w: physical resolution %s", ErrBadValue, c.Phys)
	case c.Virt.W < c.Phys.W || c.Virt.H < c.Phys.H:
		return errors.Errorf("%w: virtual %s below physical %s", ErrBadValue, c.Virt, c.Phys)
	case c.FPS <= 0 || c.FPS > 240:
		return errors.Errorf("%w: fps %d", ErrBadValue, c.FPS)
	case c.SPIMode < 0 || c.SPIMode > 3:
		return errors.Errorf("%w: spi mode %d", ErrBadValue, c.SPIMode)
	case c.MaxTx < 0:
		return errors.Errorf("%w: max-tx %d", ErrBadValue, c.MaxTx)
	case c.DrainTimeout <= 0:
		return errors.Errorf("%w: drain %v", ErrBadValue, c.DrainTimeout)
	}

	switch c.Link {
	case LinkSPI:
		if c.SpeedHz <= 0 {
			return errors.Errorf("%w: speed %d", ErrBadValue, c.SpeedHz)
		}
	case LinkPreview, LinkNull:
	default:
		return errors.Errorf("%w: link %q", ErrBadValue, c.Link)
	}

	kind, arg, _ := strings.Cut(c.Source, ":")
	switch kind {
	case "pattern", "console":
	case "image", "fbdev":
		if arg == "" {
			return errors.Errorf("%w: source %q needs a path", ErrBadValue, c.Source)
		}
	default:
		return errors.Errorf("%w: source %q", ErrBadValue, c.Source)
	}
	return nil
}
