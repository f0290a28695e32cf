package config

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
	"github.com/google/shlex"
)

// OverlayName is the dtoverlay whose parameters are read from a boot config.
const OverlayName = "spifb"

// ParseParams applies settings from r. Two line forms are understood:
//
//	dtoverlay=spifb,width=320,height=240,vwidth=480,vheight=360
//	fps=60 link=preview source="image:/srv/splash.png"
//
// Lines for other overlays are ignored, so a Raspberry Pi config.txt can be
// read as is. Comments start with #.
func ParseParams(r io.Reader, c *Config) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "[") {
			continue
		}
		toks, err := shlex.Split(text)
		if err != nil {
			return errors.Errorf("config: line %d: %v", line, err)
		}
		for _, tok := range toks {
			if err := applyToken(c, tok); err != nil {
				return errors.WrapPrefix(err, "line "+strconv.Itoa(line), 0)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}

func applyToken(c *Config, tok string) error {
	key, value, ok := strings.Cut(tok, "=")
	if !ok {
		return errors.Errorf("%w: %q is not key=value", ErrBadValue, tok)
	}
	if key == "dtparam" || key == "dtoverlay" {
		return applyOverlay(c, value)
	}
	return c.Set(key, value)
}

// applyOverlay handles "name,key=value,...". Only OverlayName is read.
func applyOverlay(c *Config, opt string) error {
	parts := strings.Split(opt, ",")
	if parts[0] != OverlayName {
		return nil
	}
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			return errors.Errorf("%w: overlay parameter %q", ErrBadValue, p)
		}
		if err := c.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile applies the params file at path on top of c.
func LoadFile(path string, c *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	defer f.Close()
	if err := ParseParams(f, c); err != nil {
		return errors.WrapPrefix(err, path, 0)
	}
	return nil
}
