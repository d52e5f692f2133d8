package hotkey

import "time"

// FakeHotkey is driven by tests and the headless test mode.
type FakeHotkey struct {
	keydown chan struct{}
	keyup   chan struct{}
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (f *FakeHotkey) Register() error          { return nil }
func (f *FakeHotkey) Unregister()              {}
func (f *FakeHotkey) Keydown() <-chan struct{} { return f.keydown }
func (f *FakeHotkey) Keyup() <-chan struct{}   { return f.keyup }

func (f *FakeHotkey) SimKeydown() { f.keydown <- struct{}{} }
func (f *FakeHotkey) SimKeyup()   { f.keyup <- struct{}{} }

// Tap presses and releases the combination at once.
func (f *FakeHotkey) Tap() {
	f.SimKeydown()
	f.SimKeyup()
}

// Hold keeps the combination down for d.
func (f *FakeHotkey) Hold(d time.Duration) {
	f.SimKeydown()
	time.Sleep(d)
	f.SimKeyup()
}
