package hotkey

import (
	"testing"
	"time"
)

func TestParseCombo(t *testing.T) {
	tests := []struct {
		in   string
		want Combo
		str  string
	}{
		{"ctrl+shift+space", Combo{Ctrl: true, Shift: true, Key: "space"}, "Ctrl+Shift+Space"},
		{"Ctrl+R", Combo{Ctrl: true, Key: "r"}, "Ctrl+R"},
		{" control + shift + f9 ", Combo{Ctrl: true, Shift: true, Key: "f9"}, "Ctrl+Shift+F9"},
		{"f12", Combo{Key: "f12"}, "F12"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCombo(tt.in)
			if err != nil {
				t.Fatalf("ParseCombo: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if got.String() != tt.str {
				t.Errorf("String() = %q, want %q", got.String(), tt.str)
			}
		})
	}
}

func TestParseComboInvalid(t *testing.T) {
	for _, in := range []string{"", "space", "ctrl+", "alt+space", "ctrl+enter", "r", "f"} {
		if _, err := ParseCombo(in); err == nil {
			t.Errorf("ParseCombo(%q) should fail", in)
		}
	}
}

func TestDefaultComboParses(t *testing.T) {
	c := MustParseCombo(DefaultCombo)
	if c.String() != "Ctrl+Shift+Space" {
		t.Errorf("default combo = %s", c)
	}
}

func TestFakeTap(t *testing.T) {
	fk := NewFake()
	hy := NewHybrid(fk, 200*time.Millisecond)
	fk.Tap()
	waitStart(t, hy)
	time.Sleep(10 * time.Millisecond)
	if !hy.IsToggle() {
		t.Error("tap should leave the hybrid in toggle mode")
	}
}
