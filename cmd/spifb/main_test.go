//go:build !tinygo

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestModesCommand(t *testing.T) {
	params := filepath.Join(t.TempDir(), "config.txt")
	if err := os.WriteFile(params, []byte("dtoverlay=spifb,width=320,height=240,vwidth=400,vheight=300\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"modes", "--params", params, "--vwidth", "640"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"panel   320x240, 153600 bytes per frame",
		"mode    640x300 ",
		"preferred",
		"format  RGB565",
		"format  XRGB8888",
		"format  ARGB8888",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("modes output missing %q:\n%s", want, got)
		}
	}
}
