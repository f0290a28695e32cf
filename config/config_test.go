package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"spifb/hal"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	c.Clamp()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if c.Phys != (hal.Resolution{W: 320, H: 240}) || c.Virt != (hal.Resolution{W: 480, H: 360}) {
		t.Fatalf("Default() geometry = %s / %s", c.Phys, c.Virt)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		phys, virt, want hal.Resolution
	}{
		{hal.Resolution{W: 320, H: 240}, hal.Resolution{W: 480, H: 360}, hal.Resolution{W: 480, H: 360}},
		{hal.Resolution{W: 320, H: 240}, hal.Resolution{W: 100, H: 100}, hal.Resolution{W: 320, H: 240}},
		{hal.Resolution{W: 320, H: 240}, hal.Resolution{W: 640, H: 200}, hal.Resolution{W: 640, H: 240}},
	}
	for _, tt := range tests {
		c := Config{Phys: tt.phys, Virt: tt.virt}
		c.Clamp()
		if c.Virt != tt.want {
			t.Fatalf("Clamp(%s, %s) = %s, want %s", tt.phys, tt.virt, c.Virt, tt.want)
		}
	}
}

func TestSet(t *testing.T) {
	c := Default()
	tests := []struct {
		key, value string
		check      func() bool
	}{
		{"width", "240", func() bool { return c.Phys.W == 240 }},
		{"VHEIGHT", "480", func() bool { return c.Virt.H == 480 }},
		{"speed", "32000000", func() bool { return c.SpeedHz == 32_000_000 }},
		{"speed", "62.5MHz", func() bool { return c.SpeedHz == 62_500_000 }},
		{"max_tx", "4096", func() bool { return c.MaxTx == 4096 }},
		{"drain", "250ms", func() bool { return c.DrainTimeout == 250*time.Millisecond }},
		{"link", "Preview", func() bool { return c.Link == LinkPreview }},
		{"source", "image:/tmp/a.png", func() bool { return c.Source == "image:/tmp/a.png" }},
	}
	for _, tt := range tests {
		if err := c.Set(tt.key, tt.value); err != nil {
			t.Fatalf("Set(%s, %s) = %v", tt.key, tt.value, err)
		}
		if !tt.check() {
			t.Fatalf("Set(%s, %s) not applied: %+v", tt.key, tt.value, c)
		}
	}

	if err := c.Set("colour", "blue"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("Set(unknown) = %v, want ErrUnknownKey", err)
	}
	for _, kv := range [][2]string{{"width", "0"}, {"height", "x"}, {"speed", "fast"}, {"drain", "1"}} {
		if err := c.Set(kv[0], kv[1]); !errors.Is(err, ErrBadValue) {
			t.Fatalf("Set(%s, %s) = %v, want ErrBadValue", kv[0], kv[1], err)
		}
	}
}

func TestGetRoundTrip(t *testing.T) {
	src := Default()
	src.MaxTx = 32768
	src.DrainTimeout = 1500 * time.Millisecond
	dst := Config{}
	for _, k := range Keys() {
		v, err := src.Get(k)
		if err != nil {
			t.Fatalf("Get(%s) = %v", k, err)
		}
		if err := dst.Set(k, v); err != nil {
			t.Fatalf("Set(%s, %s) = %v", k, v, err)
		}
	}
	if dst != src {
		t.Fatalf("round trip = %+v, want %+v", dst, src)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(c *Config)
	}{
		{"fps", func(c *Config) { c.FPS = 0 }},
		{"mode", func(c *Config) { c.SPIMode = 4 }},
		{"link", func(c *Config) { c.Link = "usb" }},
		{"speed", func(c *Config) { c.SpeedHz = 0 }},
		{"source", func(c *Config) { c.Source = "camera" }},
		{"source path", func(c *Config) { c.Source = "fbdev:" }},
		{"virt", func(c *Config) { c.Virt = hal.Resolution{W: 10, H: 10} }},
		{"drain", func(c *Config) { c.DrainTimeout = 0 }},
	}
	for _, tt := range tests {
		c := Default()
		tt.mod(&c)
		if err := c.Validate(); !errors.Is(err, ErrBadValue) {
			t.Fatalf("%s: Validate() = %v, want ErrBadValue", tt.name, err)
		}
	}

	c := Default()
	c.Link = LinkNull
	c.SpeedHz = 0
	if err := c.Validate(); err != nil {
		t.Fatalf("null link without speed: Validate() = %v", err)
	}
}

func TestParseParams(t *testing.T) {
	in := `
# boot config
[all]
dtparam=spi=on
dtoverlay=vc4-kms-v3d
dtoverlay=spifb,width=240,height=160,vwidth=360,vheight=240
fps=60 link=null   source="image:/srv/my splash.png" # trailing
`
	c := Default()
	if err := ParseParams(strings.NewReader(in), &c); err != nil {
		t.Fatalf("ParseParams() = %v", err)
	}
	if c.Phys != (hal.Resolution{W: 240, H: 160}) || c.Virt != (hal.Resolution{W: 360, H: 240}) {
		t.Fatalf("geometry = %s / %s", c.Phys, c.Virt)
	}
	if c.FPS != 60 || c.Link != LinkNull || c.Source != "image:/srv/my splash.png" {
		t.Fatalf("ParseParams() = %+v", c)
	}
}

func TestParseParamsErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"dtoverlay=spifb,depth=16", ErrUnknownKey},
		{"bogus=1", ErrUnknownKey},
		{"fps", ErrBadValue},
		{"dtoverlay=spifb,width", ErrBadValue},
		{"\n\nwidth=-3", ErrBadValue},
	}
	for _, tt := range tests {
		c := Default()
		err := ParseParams(strings.NewReader(tt.in), &c)
		if !errors.Is(err, tt.want) {
			t.Fatalf("ParseParams(%q) = %v, want %v", tt.in, err, tt.want)
		}
	}

	c := Default()
	err := ParseParams(strings.NewReader("\n\nwidth=-3"), &c)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("error %v does not name the line", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spifb.conf")
	if err := os.WriteFile(path, []byte("link=preview\nvwidth=640 vheight=480\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := Default()
	if err := LoadFile(path, &c); err != nil {
		t.Fatalf("LoadFile() = %v", err)
	}
	if c.Link != LinkPreview || c.Virt != (hal.Resolution{W: 640, H: 480}) {
		t.Fatalf("LoadFile() = %+v", c)
	}
	if err := LoadFile(filepath.Join(t.TempDir(), "missing"), &c); err == nil {
		t.Fatal("LoadFile(missing) succeeded")
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	fs := pflag.NewFlagSet("spifb", pflag.ContinueOnError)
	BindFlags(fs, Default())
	if err := fs.Parse([]string{"--fps=15", "--vwidth", "960"}); err != nil {
		t.Fatalf("Parse() = %v", err)
	}

	c := Default()
	if err := ParseParams(strings.NewReader("fps=60 link=null"), &c); err != nil {
		t.Fatalf("ParseParams() = %v", err)
	}
	if err := ApplyFlags(fs, &c); err != nil {
		t.Fatalf("ApplyFlags() = %v", err)
	}
	if c.FPS != 15 || c.Virt.W != 960 || c.Link != LinkNull {
		t.Fatalf("merged config = %+v", c)
	}

	fs = pflag.NewFlagSet("spifb", pflag.ContinueOnError)
	BindFlags(fs, Default())
	_ = fs.Parse([]string{"--fps=fast"})
	if err := ApplyFlags(fs, &c); !errors.Is(err, ErrBadValue) {
		t.Fatalf("ApplyFlags(bad) = %v, want ErrBadValue", err)
	}
}
