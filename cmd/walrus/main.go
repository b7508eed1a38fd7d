package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/JarryShaw/walrus"
	"github.com/JarryShaw/walrus/internal/cli"
	"github.com/JarryShaw/walrus/internal/term"
	"github.com/JarryShaw/walrus/internal/watch"
)

// walrus rewrites assignment expressions in Python sources so the
// files run on interpreters before 3.8. Files are converted in place;
// originals go to the archive directory first.
// Flags:
//
//	-q             quiet mode (also WALRUS_QUIET)
//	-n             dry run: report what would change, write nothing
//	-no-archive    do not keep originals before overwriting
//	-archive DIR   archive directory (default "archive")
//	-encoding ENC  source file encoding (also WALRUS_ENCODING)
//	-python VER    target interpreter version (also WALRUS_VERSION)
//	-linesep SEP   line separator for generated lines: LF, CRLF (also WALRUS_LINESEP)
//	-watch         keep running and reconvert files as they change
//	-stdin         convert stdin to stdout, flags -q and archiving ignored
//	-version       print version information (-json for machine-readable form)
func main() {
	var (
		quiet       bool
		dryRun      bool
		noArchive   bool
		archivePath string
		encodingStr string
		pythonStr   string
		lineSepStr  string
		watchMode   bool
		fromStdin   bool
		showVersion bool
		jsonOutput  bool
	)
	flag.BoolVar(&quiet, "q", cli.EnvBool("WALRUS_QUIET", false), "run quietly")
	flag.BoolVar(&dryRun, "n", false, "dry run, do not write any file")
	flag.BoolVar(&noArchive, "no-archive", false, "do not archive originals before overwriting")
	flag.StringVar(&archivePath, "archive", "archive", "directory for archived originals")
	flag.StringVar(&encodingStr, "encoding", cli.EnvString("WALRUS_ENCODING", ""), "source file encoding (IANA name, default UTF-8)")
	flag.StringVar(&pythonStr, "python", cli.EnvString("WALRUS_VERSION", ""), "target interpreter version, e.g. 3.7")
	flag.StringVar(&lineSepStr, "linesep", cli.EnvString("WALRUS_LINESEP", ""), "line separator for generated lines: LF or CRLF")
	flag.BoolVar(&watchMode, "watch", false, "watch the given paths and reconvert on change")
	flag.BoolVar(&fromStdin, "stdin", false, "read from stdin, write converted source to stdout")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&jsonOutput, "json", false, "print version information as JSON")
	flag.Parse()

	if showVersion {
		cli.PrintVersion("walrus", jsonOutput)
		return
	}

	conv, err := newConverter(quiet, dryRun, noArchive, archivePath, encodingStr, pythonStr, lineSepStr)
	if err != nil {
		cli.ExitWithError("%v", err)
	}

	if fromStdin {
		if err := conv.convertStdin(); err != nil {
			cli.ExitWithError("%v", err)
		}
		return
	}

	roots := flag.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}
	files, err := discover(roots)
	if err != nil {
		cli.ExitWithError("%v", err)
	}
	if len(files) == 0 {
		conv.log.Warn("no Python sources found under %v", roots)
	}

	failed := conv.convertAll(files)

	if watchMode {
		if err := conv.watch(roots); err != nil {
			cli.ExitWithError("%v", err)
		}
		return
	}
	if failed {
		os.Exit(1)
	}
}

type converter struct {
	log       *cli.Logger
	dryRun    bool
	noArchive bool
	archive   string
	enc       encoding.Encoding
	opts      []walrus.Option
	colored   bool

	mu sync.Mutex // serializes archive creation and reports
}

func newConverter(quiet, dryRun, noArchive bool, archive, encName, python, lineSep string) (*converter, error) {
	c := &converter{
		log:       cli.NewLogger(quiet, cli.EnvBool("WALRUS_DEBUG", false)),
		dryRun:    dryRun,
		noArchive: noArchive || dryRun,
		archive:   archive,
		colored:   term.ColorEnabled(os.Stderr),
	}
	if encName != "" {
		enc, err := htmlindex.Get(encName)
		if err != nil {
			return nil, fmt.Errorf("unknown encoding %q: %w", encName, err)
		}
		c.enc = enc
	}
	if python != "" {
		c.opts = append(c.opts, walrus.TargetVersion(python))
	}
	switch lineSep {
	case "":
	case "LF", "lf":
		c.opts = append(c.opts, walrus.LineSep("\n"))
	case "CRLF", "crlf":
		c.opts = append(c.opts, walrus.LineSep("\r\n"))
	default:
		return nil, fmt.Errorf("unknown line separator %q, want LF or CRLF", lineSep)
	}
	return c, nil
}

// convertAll runs the per-file conversions in parallel and reports
// whether any of them failed.
func (c *converter) convertAll(files []string) bool {
	g := &errgroup.Group{}
	g.SetLimit(runtime.GOMAXPROCS(0))
	var failures sync.Map
	for _, path := range files {
		path := path
		g.Go(func() error {
			if err := c.convertFile(path); err != nil {
				failures.Store(path, err)
				c.mu.Lock()
				c.log.Error("%s: %v", path, err)
				c.mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	failed := false
	failures.Range(func(_, _ any) bool {
		failed = true
		return false
	})
	return failed
}

func (c *converter) convertFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	source, err := c.decode(raw)
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}

	opts := append([]walrus.Option{walrus.Filename(path)}, c.opts...)
	res, err := walrus.Convert(source, opts...)
	if res != nil && res.Diagnostics.Len() > 0 {
		c.mu.Lock()
		fmt.Fprint(os.Stderr, res.Diagnostics.Format(c.colored))
		c.mu.Unlock()
	}
	if err != nil {
		return err
	}
	if !res.Changed {
		c.log.Debug("%s: nothing to convert", path)
		return nil
	}
	if c.dryRun {
		c.log.Info("would convert %s (%d occurrences)", path, res.Count)
		return nil
	}

	if !c.noArchive {
		if err := c.archiveFile(path, raw); err != nil {
			return fmt.Errorf("archiving: %w", err)
		}
	}
	out, err := c.encode(res.Source)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode()
	}
	if err := os.WriteFile(path, out, mode); err != nil {
		return err
	}
	c.log.Info("converted %s (%d occurrences)", path, res.Count)
	return nil
}

func (c *converter) convertStdin() error {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	source, err := c.decode(raw)
	if err != nil {
		return err
	}
	res, err := walrus.Convert(source, append([]walrus.Option{walrus.Filename("<stdin>")}, c.opts...)...)
	if res != nil && res.Diagnostics.Len() > 0 {
		fmt.Fprint(os.Stderr, res.Diagnostics.Format(c.colored))
	}
	if err != nil {
		return err
	}
	out, err := c.encode(res.Source)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

// archiveFile keeps the original bytes under the archive directory.
// Names get a unique suffix so repeated conversions of the same file
// never overwrite an earlier original.
func (c *converter) archiveFile(path string, raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.archive, 0o755); err != nil {
		return err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := fmt.Sprintf("%s-%s%s", base[:len(base)-len(ext)], uuid.New().String(), ext)
	return os.WriteFile(filepath.Join(c.archive, name), raw, 0o644)
}

func (c *converter) decode(raw []byte) (string, error) {
	if c.enc == nil {
		return string(raw), nil
	}
	out, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c *converter) encode(source string) ([]byte, error) {
	if c.enc == nil {
		return []byte(source), nil
	}
	return c.enc.NewEncoder().Bytes([]byte(source))
}

// watch reconverts files as they change until interrupted. Converted
// output triggers one more notification, which the second pass ignores
// because nothing is left to rewrite.
func (c *converter) watch(roots []string) error {
	w, err := watch.New(roots)
	if err != nil {
		return err
	}
	defer w.Close()
	c.log.Info("watching %v", roots)
	for {
		select {
		case ev := <-w.Events():
			if err := c.convertFile(ev.Path); err != nil {
				c.log.Error("%s: %v", ev.Path, err)
			}
		case err := <-w.Errors():
			c.log.Warn("watch: %v", err)
		}
	}
}

// discover expands the given paths into the Python source files under
// them. Symlinks are left alone so a link back into a converted tree
// cannot loop the traversal.
func discover(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, root := range roots {
		info, err := os.Lstat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !seen[root] {
				seen[root] = true
				files = append(files, root)
			}
			continue
		}
		err = filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.Mode()&os.ModeSymlink != 0 {
				if fi.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if fi.IsDir() || !watch.IsSource(path) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
