package main

import "testing"

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"AIzaSyD-1234567890abcdef", "AIzaSyD-"},
		{"short", "short"},
		{"exactly8", "exactly8"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := maskKey(tt.key); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
