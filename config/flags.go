package config

import (
	"github.com/spf13/pflag"
)

var usage = map[string]string{
	"width":   "panel width in pixels",
	"height":  "panel height in pixels",
	"vwidth":  "compositor width, raised to at least width",
	"vheight": "compositor height, raised to at least height",
	"bus":     "SPI port name (periph registry), empty for the first port",
	"speed":   "SPI clock, in Hz or with a unit (62.5MHz)",
	"mode":    "SPI mode 0-3",
	"max-tx":  "largest transfer segment in bytes, 0 to use the port limit",
	"fps":     "frames polled per second",
	"drain":   "how long shutdown waits for the last transfer",
	"link":    "transport: spi, preview or null",
	"source":  "pattern, console, image:<path> or fbdev:<path>",
}

// BindFlags registers one flag per key, defaulted from def. Flags are plain
// strings parsed by Set so file and command line share one parser.
func BindFlags(fs *pflag.FlagSet, def Config) {
	for _, k := range Keys() {
		v, _ := def.Get(k)
		fs.String(k, v, usage[k])
	}
}

// ApplyFlags sets every flag the user changed on c.
func ApplyFlags(fs *pflag.FlagSet, c *Config) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		if _, ok := usage[f.Name]; !ok {
			return
		}
		err = c.Set(f.Name, f.Value.String())
	})
	return err
}
