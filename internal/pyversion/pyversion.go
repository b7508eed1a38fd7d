// Package pyversion interprets target interpreter versions. The
// conversion only matters for interpreters predating assignment
// expressions, so callers gate their work on NeedsConversion.
package pyversion

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// walrusIntroduced is the first interpreter release accepting
// assignment expressions.
var walrusIntroduced = semver.MustParse("3.8.0")

// earliestSupported is the oldest interpreter the generated code
// targets; locals().get and comprehension scoping behave the same from
// here on.
var earliestSupported = semver.MustParse("3.0.0")

// Parse accepts the loose version spellings used on the command line,
// like "3.7" or "3.7.9", and returns the full semantic version.
func Parse(target string) (*semver.Version, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("empty version")
	}
	v, err := semver.NewVersion(target)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", target, err)
	}
	return v, nil
}

// NeedsConversion reports whether code written for the given target
// must have assignment expressions rewritten.
func NeedsConversion(target string) (bool, error) {
	v, err := Parse(target)
	if err != nil {
		return false, err
	}
	if v.LessThan(earliestSupported) {
		return false, fmt.Errorf("unsupported target version %q", target)
	}
	return v.LessThan(walrusIntroduced), nil
}
