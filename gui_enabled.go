//go:build gui

package main

import (
	"fmt"
	"os"
	"runtime"

	"voxsheet/audio"
	"voxsheet/gui"
)

var guiApp *gui.App

// Audio context initialized on main thread for macOS Core Audio compatibility
var guiAudioCtx audio.Context

func initGUI() {
	guiMode = true

	var err error
	guiAudioCtx, err = audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}

	// Lock this goroutine to OS thread for Fyne/GLFW
	runtime.LockOSThread()

	guiApp = gui.NewApp(run, gracefulShutdown)
	if err := guiApp.Run(); err != nil {
		guiAudioCtx.Close()
		panic(err)
	}
}

func attachGUI(a *app, m *mic) EventSink {
	guiApp.Attach(a, m.Line())
	return guiApp
}
