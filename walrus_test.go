package walrus

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		out     string
		changed bool
	}{
		{
			name:    "plain hoist",
			in:      "if (n := len(a)) > 5:\n    print(n)\n",
			out:     "n = len(a)\nif (n) > 5:\n    print(n)\n",
			changed: true,
		},
		{
			name:    "untouched input",
			in:      "x = 1  # nothing to do\n",
			out:     "x = 1  # nothing to do\n",
			changed: false,
		},
	}
	for i, tt := range tests {
		res, err := Convert(tt.in)
		if err != nil {
			t.Fatalf("tests[%d] %s - unexpected error: %v", i, tt.name, err)
		}
		if res.Changed != tt.changed {
			t.Fatalf("tests[%d] %s - changed = %v, want %v", i, tt.name, res.Changed, tt.changed)
		}
		if res.Source != tt.out {
			t.Fatalf("tests[%d] %s - wrong output:\ngot  %q\nwant %q", i, tt.name, res.Source, tt.out)
		}
	}
}

func TestConvertTargetVersion(t *testing.T) {
	src := "if (n := f()):\n    pass\n"

	// Modern targets already understand the operator.
	res, err := Convert(src, TargetVersion("3.8"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Changed || res.Source != src {
		t.Fatalf("3.8 target should leave the source alone, got %q", res.Source)
	}

	res, err = Convert(src, TargetVersion("3.7"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Changed {
		t.Fatalf("3.7 target should convert")
	}

	if _, err := Convert(src, TargetVersion("2.7")); err == nil {
		t.Fatalf("expected an error for a pre-3 target")
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.py")
	src := "while (block := read()):\n    emit(block)\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	res, err := ConvertFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "block = read()\nwhile (block):\n    emit(block)\n    block = read()\n"
	if res.Source != want {
		t.Fatalf("wrong output:\ngot  %q\nwant %q", res.Source, want)
	}

	// The input file stays untouched.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-read fixture: %v", err)
	}
	if string(data) != src {
		t.Fatalf("input file was modified")
	}
}
