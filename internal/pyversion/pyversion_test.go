package pyversion

import "testing"

func TestNeedsConversion(t *testing.T) {
	tests := []struct {
		target string
		needs  bool
		hasErr bool
	}{
		{"3.7", true, false},
		{"3.3", true, false},
		{"3.7.9", true, false},
		{"3.8", false, false},
		{"3.8.0", false, false},
		{"3.12", false, false},
		{"2.7", false, true},
		{"", false, true},
		{"not-a-version", false, true},
	}
	for i, tt := range tests {
		needs, err := NeedsConversion(tt.target)
		if tt.hasErr {
			if err == nil {
				t.Fatalf("tests[%d] - expected error for %q", i, tt.target)
			}
			continue
		}
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error for %q: %v", i, tt.target, err)
		}
		if needs != tt.needs {
			t.Fatalf("tests[%d] - NeedsConversion(%q) = %v, want %v", i, tt.target, needs, tt.needs)
		}
	}
}
