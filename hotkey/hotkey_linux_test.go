//go:build linux

package hotkey

import "testing"

const keyRepeat = 2

func TestTrackerCombo(t *testing.T) {
	tr := newTracker(MustParseCombo("ctrl+shift+space"))
	space := keyCodes["space"]

	steps := []struct {
		code  uint16
		value int32
		want  edge
	}{
		{space, keyPress, edgeNone}, // no modifiers yet
		{space, keyRelease, edgeNone},
		{keyLCtrl, keyPress, edgeNone},
		{keyRShift, keyPress, edgeNone},
		{space, keyPress, edgeDown},
		{space, keyRepeat, edgeNone},
		{keyLCtrl, keyRelease, edgeNone},
		{space, keyRelease, edgeUp}, // release counts even after modifiers let go
		{space, keyRelease, edgeNone},
	}
	for i, s := range steps {
		if got := tr.feed(s.code, s.value); got != s.want {
			t.Errorf("step %d: feed(%d, %d) = %v, want %v", i, s.code, s.value, got, s.want)
		}
	}
}

func TestTrackerExactModifiers(t *testing.T) {
	tr := newTracker(MustParseCombo("ctrl+r"))
	r := keyCodes["r"]

	tr.feed(keyLCtrl, keyPress)
	tr.feed(keyLShift, keyPress)
	if got := tr.feed(r, keyPress); got != edgeNone {
		t.Errorf("ctrl+shift+r fired a ctrl+r binding")
	}
	tr.feed(r, keyRelease)
	tr.feed(keyLShift, keyRelease)
	if got := tr.feed(r, keyPress); got != edgeDown {
		t.Errorf("ctrl+r = %v, want edgeDown", got)
	}
}

func TestTrackerFunctionKeyAlone(t *testing.T) {
	tr := newTracker(MustParseCombo("f9"))
	if got := tr.feed(keyCodes["f9"], keyPress); got != edgeDown {
		t.Errorf("f9 press = %v, want edgeDown", got)
	}
	if got := tr.feed(keyCodes["f9"], keyRelease); got != edgeUp {
		t.Errorf("f9 release = %v, want edgeUp", got)
	}
}
