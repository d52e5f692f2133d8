//go:build !gui

package main

import (
	"fmt"
	"os"

	"voxsheet/audio"
)

// Stubs for non-GUI builds (these are never used since guiMode is false)
var guiAudioCtx audio.Context

func initGUI() {
	fmt.Fprintln(os.Stderr, "voxsheet: built without GUI support (rebuild with -tags gui)")
	os.Exit(1)
}

func attachGUI(*app, *mic) EventSink {
	return newPlainSink(os.Stdout)
}
