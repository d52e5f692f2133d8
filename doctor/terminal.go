package doctor

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"voxsheet/shutdown"
)

var savedTerminal *term.State

// saveTerminal remembers the terminal mode so it can be put back after
// the hotkey backend or the device picker changed it.
func saveTerminal() {
	if st, err := term.GetState(int(os.Stdin.Fd())); err == nil {
		savedTerminal = st
	}
}

func resetTerminal() {
	if savedTerminal != nil {
		term.Restore(int(os.Stdin.Fd()), savedTerminal)
	}
}

func setupInterruptHandler() {
	shutdown.Watch(func(os.Signal) {
		resetTerminal()
		fmt.Println("\nInterrupted")
		os.Exit(1)
	})
}
