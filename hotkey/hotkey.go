// Package hotkey watches a global key combination. Keydown and Keyup fire
// once per press of the whole combination.
package hotkey

import (
	"fmt"
	"strings"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

const DefaultCombo = "ctrl+shift+space"

// Combo is a key pressed while the listed modifiers are held.
// Key is "space", a letter "a".."z" or a function key "f1".."f12".
type Combo struct {
	Ctrl  bool
	Shift bool
	Key   string
}

// ParseCombo reads combinations such as "ctrl+shift+space" or "Ctrl+F9".
// At least one modifier is required unless Key is a function key.
func ParseCombo(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 {
		return Combo{}, fmt.Errorf("hotkey %q: empty", s)
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i < len(parts)-1 {
			switch p {
			case "ctrl", "control":
				c.Ctrl = true
			case "shift":
				c.Shift = true
			default:
				return Combo{}, fmt.Errorf("hotkey %q: unknown modifier %q", s, p)
			}
			continue
		}
		if _, ok := keyCodes[p]; !ok {
			return Combo{}, fmt.Errorf("hotkey %q: unsupported key %q", s, p)
		}
		c.Key = p
	}
	if !c.Ctrl && !c.Shift && !isFunctionKey(c.Key) {
		return Combo{}, fmt.Errorf("hotkey %q: needs ctrl or shift", s)
	}
	return c, nil
}

func isFunctionKey(k string) bool {
	return len(k) > 1 && k[0] == 'f'
}

func MustParseCombo(s string) Combo {
	c, err := ParseCombo(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders the combination for help lines, e.g. "Ctrl+Shift+Space".
func (c Combo) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if c.Shift {
		parts = append(parts, "Shift")
	}
	key := strings.ToUpper(c.Key[:1]) + c.Key[1:]
	return strings.Join(append(parts, key), "+")
}

// keyCodes maps key names to Linux input event codes.
var keyCodes = map[string]uint16{
	"space": 57,
	"a": 30, "b": 48, "c": 46, "d": 32, "e": 18, "f": 33, "g": 34,
	"h": 35, "i": 23, "j": 36, "k": 37, "l": 38, "m": 50, "n": 49,
	"o": 24, "p": 25, "q": 16, "r": 19, "s": 31, "t": 20, "u": 22,
	"v": 47, "w": 17, "x": 45, "y": 21, "z": 44,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64,
	"f7": 65, "f8": 66, "f9": 67, "f10": 68, "f11": 87, "f12": 88,
}
