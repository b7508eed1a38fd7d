// Package walrus rewrites Python assignment expressions (PEP 572,
// the ``:=`` operator) into code older interpreters accept. Every byte
// outside a rewritten span is preserved, so the output diffs cleanly
// against the input.
package walrus

import (
	"fmt"
	"os"

	"github.com/JarryShaw/walrus/internal/diagnostic"
	"github.com/JarryShaw/walrus/internal/pyversion"
	"github.com/JarryShaw/walrus/internal/transform"
)

// Result reports one conversion.
type Result struct {
	// Source is the converted text; identical to the input when
	// nothing needed rewriting.
	Source string
	// Changed reports whether any rewrite happened.
	Changed bool
	// Count is the number of assignment expressions rewritten.
	Count int
	// Diagnostics collects per-occurrence failures; the rest of the
	// file still converts around them.
	Diagnostics *diagnostic.List
}

// Convert rewrites every assignment expression in source.
func Convert(source string, opts ...Option) (*Result, error) {
	cfg := buildConfig(opts)
	if cfg.target != "" {
		needs, err := pyversion.NeedsConversion(cfg.target)
		if err != nil {
			return nil, err
		}
		if !needs {
			return &Result{Source: source, Diagnostics: &diagnostic.List{}}, nil
		}
	}
	res, err := transform.Rewrite(source, transform.Options{
		Filename: cfg.filename,
		LineSep:  cfg.lineSep,
	})
	if res == nil {
		return nil, err
	}
	return &Result{
		Source:      res.Source,
		Changed:     res.Changed,
		Count:       res.Count,
		Diagnostics: res.Diagnostics,
	}, err
}

// ConvertFile reads path and converts its contents. The file itself is
// not touched; callers decide what to do with the result.
func ConvertFile(path string, opts ...Option) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	opts = append([]Option{Filename(path)}, opts...)
	return Convert(string(data), opts...)
}
