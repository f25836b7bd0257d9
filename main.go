package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

var (
	flagOutput   = flag.StringP("out", "o", "", "write generated code to this file instead of stdout")
	flagPkg      = flag.String("pkg", "", "override the package name for the generated code")
	flagRuntime  = flag.String("runtime", defaultRuntimeImport, "import path of the fixture runtime package")
	flagTemplate = flag.String("template", "", "custom template archive to use instead of the default")
)

// generatedHeader marks files fixturegen wrote itself; they are skipped
// when scanning a directory so regeneration is idempotent.
const generatedHeader = "// Code generated by fixturegen; DO NOT EDIT."

func main() {
	flag.Parse()

	if err := run(flag.Args(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "fixturegen:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}

	g := &generator{
		PackageName:   *flagPkg,
		RuntimeImport: *flagRuntime,
		Template:      *flagTemplate,
	}

	var buf bytes.Buffer
	if err := g.generate(&buf, inputs); err != nil {
		return err
	}

	if *flagOutput != "" {
		return os.WriteFile(*flagOutput, buf.Bytes(), 0o644)
	}
	_, err = stdout.Write(buf.Bytes())
	return err
}

// collectInputs resolves the command arguments to source files. With no
// arguments and piped input, a single file is read from stdin.
func collectInputs(args []string) ([]sourceFile, error) {
	if len(args) == 0 {
		if isInteractive() {
			flag.Usage()
			return nil, fmt.Errorf("expects Go source files as arguments or on stdin")
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		return []sourceFile{{name: "stdin.go", data: data}}, nil
	}

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.go"))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}

	var inputs []sourceFile
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(string(data), generatedHeader) {
			continue
		}
		inputs = append(inputs, sourceFile{name: path, data: data})
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no Go files found")
	}
	return inputs, nil
}

// isInteractive reports whether stdin is attached to a terminal.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
