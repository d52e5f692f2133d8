//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

// Cocoa and Win32 want the hotkey and audio calls on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if wantsGUI(os.Args[1:]) {
		initGUI() // takes the main thread and calls run on a goroutine
		return
	}
	mainthread.Init(run)
}
