package walrus

// Option adjusts a single conversion.
type Option func(*config)

type config struct {
	filename string
	lineSep  string
	target   string
}

// Filename sets the name reported in diagnostics. ConvertFile fills it
// in automatically.
func Filename(name string) Option {
	return func(c *config) { c.filename = name }
}

// LineSep forces the newline sequence used for generated lines instead
// of detecting it from the source.
func LineSep(sep string) Option {
	return func(c *config) { c.lineSep = sep }
}

// TargetVersion names the interpreter the output must run on, like
// "3.7". Targets that already accept assignment expressions make the
// conversion a no-op.
func TargetVersion(v string) Option {
	return func(c *config) { c.target = v }
}

func buildConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
