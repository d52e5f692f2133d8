package main

import "testing"

func TestWantsGUI(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"-gui"}, true},
		{[]string{"-cell", "B2", "--gui=true"}, true},
		{[]string{"-gui=false"}, false},
		{[]string{"-test", "--", "-gui"}, false},
	}
	for _, tt := range tests {
		if got := wantsGUI(tt.args); got != tt.want {
			t.Errorf("wantsGUI(%q) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
