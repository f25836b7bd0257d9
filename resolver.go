package main

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxErrDepth bounds how many trailing error results are peeled off a
// fixture function's signature. Deeper nesting is rejected rather than
// introspected, matching the documented fixed-depth limitation.
const maxErrDepth = 3

var (
	valueCtors = [maxErrDepth + 1]string{"New", "NewE", "NewE2", "NewE3"}
	setupCtors = [maxErrDepth + 1]string{"Setup", "SetupE", "SetupE2", "SetupE3"}
)

// resolve determines the cached payload type and unwrap depth for decl's
// function, checks any explicit annotation against it, and picks the
// runtime constructor the generated code will call.
func resolve(decl *Declaration, fn *ast.FuncDecl, fset *token.FileSet, src []byte) error {
	pos := fset.Position(fn.Pos())
	switch {
	case fn.Recv != nil:
		return &DirectiveError{pos, fmt.Sprintf("fixture function %s must not have a receiver", decl.FuncName)}
	case fn.Type.TypeParams != nil:
		return &DirectiveError{pos, fmt.Sprintf("fixture function %s must not have type parameters", decl.FuncName)}
	case fn.Type.Params != nil && len(fn.Type.Params.List) > 0:
		return &DirectiveError{pos, fmt.Sprintf("fixture function %s must not take parameters", decl.FuncName)}
	}

	var results []ast.Expr
	if fn.Type.Results != nil {
		for _, field := range fn.Type.Results.List {
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				results = append(results, field.Type)
			}
		}
	}

	for len(results) > 0 && isErrorType(results[len(results)-1]) {
		results = results[:len(results)-1]
		decl.Depth++
	}
	if decl.Depth > maxErrDepth {
		return &DirectiveError{pos, fmt.Sprintf("%d trailing error results exceed the supported maximum of %d", decl.Depth, maxErrDepth)}
	}

	switch len(results) {
	case 0:
		// Setup fixture: the cached value is the fact that fn ran.
		if decl.TypeText != "" && canonical(decl.typeExpr) != "struct{}" {
			return &DirectiveError{decl.Pos, fmt.Sprintf("declared type %s conflicts with function %s, which returns no value", decl.TypeText, decl.FuncName)}
		}
		decl.Ctor = setupCtors[decl.Depth]
	case 1:
		decl.Payload = string(src[offsetOf(fset, results[0].Pos()):offsetOf(fset, results[0].End())])
		decl.Ctor = valueCtors[decl.Depth]
		if decl.TypeText != "" {
			if canonical(decl.typeExpr) != canonical(results[0]) {
				return &DirectiveError{decl.Pos, fmt.Sprintf("declared type %s does not match function result type %s", decl.TypeText, decl.Payload)}
			}
			// Pin the slot's element type the way the user wrote it.
			decl.Ctor += "[" + decl.TypeText + "]"
		}
	default:
		return &DirectiveError{pos, fmt.Sprintf("fixture function %s returns %d values; wrap them in a struct", decl.FuncName, len(results))}
	}

	decl.TestName = testName(decl.FuncName)
	return nil
}

// collectImports maps the package qualifiers mentioned in decl's pinned
// type annotation to import specs copied from the source file. Inferred
// types are never re-emitted, so only annotated declarations need this.
func collectImports(decl *Declaration, file *ast.File) error {
	if decl.typeExpr == nil || !strings.Contains(decl.Ctor, "[") {
		return nil
	}

	quals := make(map[string]bool)
	ast.Inspect(decl.typeExpr, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok {
				quals[id.Name] = true
				return false
			}
		}
		return true
	})

	names := make([]string, 0, len(quals))
	for qual := range quals {
		names = append(names, qual)
	}
	sort.Strings(names)

	for _, qual := range names {
		spec := findImport(file, qual)
		if spec == "" {
			return &DirectiveError{decl.Pos, fmt.Sprintf("cannot resolve package %s in type %s", qual, decl.TypeText)}
		}
		decl.Imports = append(decl.Imports, spec)
	}
	return nil
}

// findImport returns the import spec of file that binds the given package
// qualifier, or "" when no import matches.
func findImport(file *ast.File, qual string) string {
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		name := path[strings.LastIndex(path, "/")+1:]
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == qual {
			if imp.Name != nil {
				return imp.Name.Name + " " + imp.Path.Value
			}
			return imp.Path.Value
		}
	}
	return ""
}

// isErrorType reports whether expr is the predeclared error identifier,
// the only result type treated as a failure wrapper.
func isErrorType(expr ast.Expr) bool {
	id, ok := expr.(*ast.Ident)
	return ok && id.Name == "error"
}

// canonical renders a type expression in a normalized form for the
// annotation consistency check. This is a syntactic comparison; aliases
// spelled differently are deliberately rejected.
func canonical(expr ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, token.NewFileSet(), expr); err != nil {
		return ""
	}
	return buf.String()
}

func offsetOf(fset *token.FileSet, pos token.Pos) int {
	return fset.Position(pos).Offset
}

// testName derives the generated test entry point's name from the
// annotated function's name.
func testName(fn string) string {
	r, size := utf8.DecodeRuneInString(fn)
	return "Test" + string(unicode.ToUpper(r)) + fn[size:]
}
