package main

import "testing"

func TestGetenvDefault(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		def   string
		want  string
	}{
		{"set", "HUB_TEST_VAR", "8080", "8000", "8080"},
		{"unset falls back", "HUB_TEST_VAR_MISSING", "", "8000", "8000"},
		{"empty falls back", "HUB_TEST_VAR_EMPTY", "", "uploads", "uploads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}
			if got := getenvDefault(tt.key, tt.def); got != tt.want {
				t.Errorf("getenvDefault(%q, %q) = %q, want %q", tt.key, tt.def, got, tt.want)
			}
		})
	}
}
