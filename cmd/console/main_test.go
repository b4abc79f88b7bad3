package main

import "testing"

func TestIsStatic(t *testing.T) {
	tests := map[string]bool{
		"Main.0":         true,
		"Memory.12":      true,
		"Main.main":      false,
		"Sys.init$ret.0": false,
		"Main.main$EQ.3": false,
		"LOOP":           false,
		"Main.":          false,
	}
	for name, want := range tests {
		if got := isStatic(name); got != want {
			t.Errorf("isStatic(%q) = %v, want %v", name, got, want)
		}
	}
}
