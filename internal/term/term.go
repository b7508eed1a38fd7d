// Package term answers whether output goes to an interactive terminal,
// which decides whether diagnostics get colored.
package term

import "os"

// IsTerminal reports whether the file is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isTerminal(f.Fd())
}

// ColorEnabled reports whether escape codes should be written to the
// file. NO_COLOR in the environment wins over detection.
func ColorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return IsTerminal(f)
}
