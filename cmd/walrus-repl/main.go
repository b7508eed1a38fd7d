package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/JarryShaw/walrus"
	"github.com/JarryShaw/walrus/internal/cli"
	"github.com/JarryShaw/walrus/internal/syntax"
)

// walrus-repl is an interactive scratchpad: paste a Python snippet and
// see its converted form. Input keeps reading (with a continuation
// prompt) while the snippet is syntactically incomplete, the way the
// interactive interpreter does.
func main() {
	var (
		pythonStr   string
		showVersion bool
		jsonOutput  bool
	)
	flag.StringVar(&pythonStr, "python", cli.EnvString("WALRUS_VERSION", ""), "target interpreter version, e.g. 3.7")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&jsonOutput, "json", false, "print version information as JSON")
	flag.Parse()

	if showVersion {
		cli.PrintVersion("walrus-repl", jsonOutput)
		return
	}

	var opts []walrus.Option
	if pythonStr != "" {
		opts = append(opts, walrus.TargetVersion(pythonStr))
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := historyPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Println("walrus converter scratchpad; empty line finishes a block, Ctrl-D exits")
	for {
		snippet, err := readSnippet(line)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			break
		}
		if strings.TrimSpace(snippet) == "" {
			continue
		}
		line.AppendHistory(strings.TrimRight(snippet, "\n"))

		res, err := walrus.Convert(snippet, opts...)
		if res != nil && res.Diagnostics.Len() > 0 {
			fmt.Fprint(os.Stderr, res.Diagnostics.Format(false))
		}
		if err != nil {
			continue
		}
		if !res.Changed {
			fmt.Println("# unchanged")
			continue
		}
		fmt.Print(res.Source)
	}

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
}

// readSnippet accumulates lines until they parse as a complete module,
// probing the parser after each one. A parse failure at end of input
// means the construct is still open, so reading continues; an empty
// line closes an open block the way the interactive interpreter does.
func readSnippet(line *liner.State) (string, error) {
	var b strings.Builder
	prompt := ">>> "
	for {
		text, err := line.Prompt(prompt)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 && text == "" {
			return b.String(), nil
		}
		b.WriteString(text)
		b.WriteString("\n")

		if _, err := syntax.Parse(b.String(), "<repl>"); err != nil {
			var pe *syntax.ParseError
			if errors.As(err, &pe) && pe.AtEOF {
				prompt = "... "
				continue
			}
			// A hard syntax error; hand the snippet over so the
			// conversion reports it.
			return b.String(), nil
		}
		// Block headers parse once indented lines follow, so keep
		// reading until the user closes the block.
		if prompt == "... " {
			continue
		}
		return b.String(), nil
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".walrus_history")
}
