//go:build !tinygo

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"spifb/app"
	"spifb/hal"
	"spifb/pipeline"
	"spifb/source"
)

var (
	framesFlag uint64
	scaleFlag  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "stream frames until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := runStream(cmd)
		report(err)
		return err
	},
}

func init() {
	runCmd.Flags().Uint64Var(&framesFlag, "frames", 0, "stop after this many polls (0 = forever)")
	runCmd.Flags().IntVar(&scaleFlag, "scale", 2, "preview window scale")
	rootCmd.AddCommand(runCmd)
}

func runStream(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := hal.NewLogger(os.Stderr)

	link, err := app.OpenLink(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := link.Close(); err != nil {
			hal.Logf(log, "warn: link: close: %v", err)
		}
	}()

	ctrl, err := pipeline.New(link, pipeline.Config{
		Phys:         cfg.Phys,
		Virt:         cfg.Virt,
		DrainTimeout: cfg.DrainTimeout,
		MaxTxSize:    cfg.MaxTx,
		Logger:       log,
	})
	if err != nil {
		return err
	}
	log.WriteLineString(app.Banner(ctrl, link.Name))

	src, err := source.Open(cfg.Source, ctrl.Virtual())
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	loop := app.LoopConfig{FPS: cfg.FPS, Frames: framesFlag}

	if link.Preview == nil {
		return ignoreCancel(app.Run(ctx, ctrl, src, loop, log))
	}

	// The window owns the main goroutine; the pipeline runs beside it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx, ctrl, src, loop, log)
		_ = link.Preview.Close()
	}()
	if err := hal.RunPreview(link.Preview, app.Banner(ctrl, link.Name), scaleFlag); err != nil {
		cancel()
		<-done
		return err
	}
	cancel()
	return ignoreCancel(<-done)
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
