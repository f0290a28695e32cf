//go:build !tinygo

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spifb/config"
)

var rootCmd = &cobra.Command{
	Use:          "spifb",
	Short:        "spifb streams a compositor surface to an SPI panel",
	Long:         "spifb converts frames to big-endian RGB565 and streams them, whole, to a dumb SPI display.",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(1)
	},
}

var (
	debugFlag  bool
	paramsFlag string
)

func init() {
	cobra.EnablePrefixMatching = true
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&debugFlag, "debug", "d", false, "print error stacks")
	pf.StringVarP(&paramsFlag, "params", "p", "", "params file (key=value lines or a config.txt with dtoverlay=spifb,...)")
	config.BindFlags(pf, config.Default())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers defaults, the params file and changed flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	c := config.Default()
	if paramsFlag != "" {
		if err := config.LoadFile(paramsFlag, &c); err != nil {
			return c, err
		}
	}
	if err := config.ApplyFlags(cmd.Flags(), &c); err != nil {
		return c, err
	}
	c.Clamp()
	return c, c.Validate()
}

// report prints err, with its stack under --debug.
func report(err error) {
	if err == nil {
		return
	}
	if sf, ok := err.(interface{ ErrorStack() string }); debugFlag && ok {
		fmt.Fprintln(os.Stderr, sf.ErrorStack())
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
