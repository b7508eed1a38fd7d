package cli

import "testing"

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{"1", false, true},
		{"yes", false, true},
		{"TRUE", false, true},
		{"On", false, true},
		{"0", true, false},
		{"no", true, false},
		{"off", true, false},
		{"  false  ", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for i, tt := range tests {
		t.Setenv("WALRUS_TEST_BOOL", tt.value)
		if got := EnvBool("WALRUS_TEST_BOOL", tt.fallback); got != tt.want {
			t.Fatalf("tests[%d] - EnvBool(%q, %v) = %v, want %v", i, tt.value, tt.fallback, got, tt.want)
		}
	}
}

func TestEnvBoolUnset(t *testing.T) {
	if got := EnvBool("WALRUS_TEST_UNSET_VAR", true); !got {
		t.Fatalf("unset variable should return the fallback")
	}
}

func TestEnvString(t *testing.T) {
	t.Setenv("WALRUS_TEST_STR", "  utf-8  ")
	if got := EnvString("WALRUS_TEST_STR", "latin1"); got != "utf-8" {
		t.Fatalf("EnvString = %q, want %q", got, "utf-8")
	}
	t.Setenv("WALRUS_TEST_STR", "   ")
	if got := EnvString("WALRUS_TEST_STR", "latin1"); got != "latin1" {
		t.Fatalf("blank value should return the fallback, got %q", got)
	}
}
