//go:build !tinygo

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spifb/hal"
	"spifb/internal/buildinfo"
	"spifb/pipeline"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "print the advertised display mode and source formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			report(err)
			return err
		}
		ctrl, err := pipeline.New(hal.Blocking(hal.NewNullLink(0, cfg.MaxTx)), pipeline.Config{
			Phys:      cfg.Phys,
			Virt:      cfg.Virt,
			MaxTxSize: cfg.MaxTx,
		})
		if err != nil {
			report(err)
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "panel   %s, %d bytes per frame\n", ctrl.Physical(), ctrl.Physical().FrameBytes())
		for _, m := range ctrl.Modes() {
			fmt.Fprintf(out, "mode    %s\n", m)
		}
		for _, f := range ctrl.Formats() {
			fmt.Fprintf(out, "format  %s\n", f)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
	},
}

func init() {
	rootCmd.AddCommand(modesCmd, versionCmd)
}
