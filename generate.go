package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"io"
	"os"
	"sort"
	"text/template"

	"golang.org/x/tools/txtar"
)

// defaultRuntimeImport is the package the generated code calls into. It
// can be overridden for forks and vendored copies; the package must still
// be named fixture.
const defaultRuntimeImport = "github.com/fixturegen/fixturegen/fixture"

// FormatError is returned when generated code fails to format.
type FormatError struct {
	OriginalError error
	Source        string // The unformatted source code
	LineNum       int
	Column        int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("formatting error at line %d:%d: %v", e.LineNum, e.Column, e.OriginalError)
}

func (e *FormatError) Unwrap() error {
	return e.OriginalError
}

//go:embed templates.txt
var defaultTemplates string

type generator struct {
	PackageName   string // overrides the source package name in generated code
	RuntimeImport string // import path of the fixture runtime package
	Template      string // custom template archive to use instead of the default

	fileTemplate    *template.Template
	fixtureTemplate *template.Template
}

// sourceFile is one input file queued for scanning.
type sourceFile struct {
	name string
	data []byte
}

func (g *generator) loadTemplates() error {
	var templateData string

	// Try to load from the specified template file first.
	if g.Template != "" {
		if data, err := os.ReadFile(g.Template); err == nil {
			templateData = string(data)
		}
	}

	// Fall back to embedded templates if an external file was not found
	// or not specified.
	if templateData == "" {
		templateData = defaultTemplates
	}

	archive := txtar.Parse([]byte(templateData))
	templates := make(map[string]string)
	for _, file := range archive.Files {
		templates[file.Name] = string(file.Data)
	}

	if fileTmpl, ok := templates["file.tmpl"]; ok {
		g.fileTemplate = template.Must(template.New("file").Parse(fileTmpl))
	}
	if fixtureTmpl, ok := templates["fixture.tmpl"]; ok {
		g.fixtureTemplate = template.Must(template.New("fixture").Parse(fixtureTmpl))
	}
	if g.fileTemplate == nil || g.fixtureTemplate == nil {
		return fmt.Errorf("template archive is missing file.tmpl or fixture.tmpl")
	}
	return nil
}

// generate scans the inputs for fixture directives and writes the
// generated file to output. Nothing is written when any input is
// malformed; a directive error aborts the whole run.
func (g *generator) generate(output io.Writer, inputs []sourceFile) error {
	if err := g.loadTemplates(); err != nil {
		return err
	}

	fset := token.NewFileSet()
	var (
		pkgName string
		pkgFile string
		decls   []*Declaration
	)
	for _, in := range inputs {
		file, err := parser.ParseFile(fset, in.name, in.data, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return err
		}
		fileDecls, err := scanFile(fset, file, in.data)
		if err != nil {
			return err
		}
		if len(fileDecls) == 0 {
			continue
		}
		// Only directive-bearing files take part in the package check, so
		// scanning a directory holding both foo and foo_test packages works
		// as long as the directives live in one of them.
		if pkgName == "" {
			pkgName, pkgFile = file.Name.Name, in.name
		} else if file.Name.Name != pkgName {
			return fmt.Errorf("%s: package %s conflicts with package %s from %s", in.name, file.Name.Name, pkgName, pkgFile)
		}
		decls = append(decls, fileDecls...)
	}
	if len(decls) == 0 {
		return fmt.Errorf("no fixture directives found")
	}
	if err := checkCollisions(decls); err != nil {
		return err
	}

	if g.PackageName != "" {
		pkgName = g.PackageName
	}
	runtimeImport := g.RuntimeImport
	if runtimeImport == "" {
		runtimeImport = defaultRuntimeImport
	}

	var body bytes.Buffer
	for i, decl := range decls {
		if i > 0 {
			body.WriteString("\n")
		}
		if err := g.fixtureTemplate.Execute(&body, decl); err != nil {
			return fmt.Errorf("rendering fixture %s: %w", decl.Name, err)
		}
	}

	var buf bytes.Buffer
	err := g.fileTemplate.Execute(&buf, struct {
		Package string
		Runtime string
		Imports []string
		Content string
	}{
		Package: pkgName,
		Runtime: runtimeImport,
		Imports: extraImports(decls),
		Content: body.String(),
	})
	if err != nil {
		return err
	}

	src := buf.String()
	formatted, err := format.Source([]byte(src))
	if err != nil {
		// Parse the go/format error, which looks like
		// "7:12: expected declaration, found fixture".
		var lineNum, colNum int
		fmt.Sscanf(err.Error(), "%d:%d:", &lineNum, &colNum)
		return &FormatError{
			OriginalError: err,
			Source:        src,
			LineNum:       lineNum,
			Column:        colNum,
		}
	}

	_, err = output.Write(formatted)
	return err
}

// extraImports is the deduplicated union of the import specs that pinned
// type annotations pulled in, in sorted order. go/format re-sorts the
// final import group anyway; sorting here keeps output deterministic even
// under a custom template.
func extraImports(decls []*Declaration) []string {
	seen := make(map[string]bool)
	var imports []string
	for _, decl := range decls {
		for _, imp := range decl.Imports {
			if !seen[imp] {
				seen[imp] = true
				imports = append(imports, imp)
			}
		}
	}
	sort.Strings(imports)
	return imports
}

// checkCollisions rejects duplicate fixture names and generated test
// names across the whole run.
func checkCollisions(decls []*Declaration) error {
	names := make(map[string]token.Position)
	tests := make(map[string]token.Position)
	for _, decl := range decls {
		if prev, ok := names[decl.Name]; ok {
			return &DirectiveError{decl.Pos, fmt.Sprintf("fixture %s already declared at %s", decl.Name, prev)}
		}
		names[decl.Name] = decl.Pos
		if prev, ok := tests[decl.TestName]; ok {
			return &DirectiveError{decl.Pos, fmt.Sprintf("generated test %s collides with the fixture declared at %s", decl.TestName, prev)}
		}
		tests[decl.TestName] = decl.Pos
	}
	return nil
}
