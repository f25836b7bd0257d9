package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// Directive syntax: a line in a function's doc comment of the form
//
//	//fixture:register IDENT (: TYPE)?
//
// Comment lines in the same group after the directive are carried over
// verbatim as the generated slot's doc comment.
const (
	directivePrefix   = "//fixture:"
	directiveRegister = "//fixture:register"
)

// DirectiveError describes a malformed fixture directive or an annotated
// function the generator cannot handle. It points at the offending source
// position so editors can jump to it.
type DirectiveError struct {
	Pos token.Position
	Msg string
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Declaration is one parsed fixture directive together with the function
// it decorates.
type Declaration struct {
	Name     string   // identifier the cached value is exposed under
	TypeText string   // explicit type annotation, empty when inferred
	Doc      []string // verbatim comment lines re-emitted above the slot

	FuncName string
	Pos      token.Position

	// Filled in by resolve.
	Payload  string   // payload type source text, empty for setup fixtures
	Depth    int      // trailing error results peeled off
	Ctor     string   // runtime constructor, including any pinned type argument
	TestName string
	Imports  []string // import specs the pinned type annotation depends on

	typeExpr ast.Expr // parsed TypeText
}

// scanFile collects the fixture declarations from one parsed file and
// resolves each against its function signature. src must be the bytes the
// file was parsed from.
func scanFile(fset *token.FileSet, file *ast.File, src []byte) ([]*Declaration, error) {
	var decls []*Declaration
	for _, d := range file.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		decl, err := scanFunc(fset, fn)
		if err != nil {
			return nil, err
		}
		if decl == nil {
			continue
		}
		if err := resolve(decl, fn, fset, src); err != nil {
			return nil, err
		}
		if err := collectImports(decl, file); err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

// scanFunc looks for a fixture directive in fn's doc comment.
func scanFunc(fset *token.FileSet, fn *ast.FuncDecl) (*Declaration, error) {
	var decl *Declaration
	for _, c := range fn.Doc.List {
		text := c.Text
		switch {
		case isDirective(text, directiveRegister):
			if decl != nil {
				return nil, &DirectiveError{fset.Position(c.Pos()), "multiple fixture directives on one function"}
			}
			d, err := parseArgs(text[len(directiveRegister):], fset.Position(c.Pos()), len(directiveRegister))
			if err != nil {
				return nil, err
			}
			d.FuncName = fn.Name.Name
			d.Pos = fset.Position(c.Pos())
			if d.Name == d.FuncName {
				return nil, &DirectiveError{d.Pos, fmt.Sprintf("fixture name %s collides with the function it is declared on", d.Name)}
			}
			decl = d
		case strings.HasPrefix(text, directivePrefix):
			verb := text[len(directivePrefix):]
			if i := strings.IndexAny(verb, " \t"); i >= 0 {
				verb = verb[:i]
			}
			return nil, &DirectiveError{fset.Position(c.Pos()), fmt.Sprintf("unknown fixture directive %q", verb)}
		default:
			if decl != nil && strings.HasPrefix(text, "//") {
				decl.Doc = append(decl.Doc, text)
			}
		}
	}
	return decl, nil
}

// isDirective reports whether text is the given directive, i.e. the name
// is followed by an argument separator or nothing at all. This keeps
// //fixture:registerextra from matching.
func isDirective(text, name string) bool {
	if !strings.HasPrefix(text, name) {
		return false
	}
	rest := text[len(name):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// parseArgs parses the directive arguments: IDENT (':' TYPE)?. pos is the
// position of the directive comment and base the byte offset of args
// within it, used to point errors at the offending token. Directive lines
// are ASCII by convention, so byte offsets double as column offsets.
func parseArgs(args string, pos token.Position, base int) (*Declaration, error) {
	i := 0
	skipSpace := func() {
		for i < len(args) && (args[i] == ' ' || args[i] == '\t') {
			i++
		}
	}
	fail := func(off int, msg string) error {
		return &DirectiveError{at(pos, base+off), msg}
	}

	skipSpace()
	if i == len(args) {
		return nil, fail(i, "missing fixture name")
	}

	start := i
	for i < len(args) && !strings.ContainsRune(": \t", rune(args[i])) {
		i++
	}
	name := args[start:i]
	if !token.IsIdentifier(name) {
		return nil, fail(start, fmt.Sprintf("invalid fixture name %q", name))
	}
	decl := &Declaration{Name: name}

	skipSpace()
	if i == len(args) {
		return decl, nil
	}
	if args[i] != ':' {
		return nil, fail(i, fmt.Sprintf("unexpected %q after fixture name", strings.TrimRight(args[i:], " \t")))
	}
	i++
	skipSpace()
	if i == len(args) {
		return nil, fail(i, "missing type after ':'")
	}

	typeText := strings.TrimRight(args[i:], " \t")
	expr, err := parser.ParseExpr(typeText)
	if err != nil || !isTypeExpr(expr) {
		return nil, fail(i, fmt.Sprintf("cannot parse %q as a type", typeText))
	}
	decl.TypeText = typeText
	decl.typeExpr = expr
	return decl, nil
}

// at shifts a position to the right within its line.
func at(pos token.Position, col int) token.Position {
	pos.Column += col
	pos.Offset += col
	return pos
}

// isTypeExpr reports whether expr can denote a type. parser.ParseExpr
// happily parses arbitrary value expressions, which make no sense as a
// slot's element type.
func isTypeExpr(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Ident, *ast.SelectorExpr,
		*ast.ArrayType, *ast.MapType, *ast.ChanType,
		*ast.FuncType, *ast.InterfaceType, *ast.StructType:
		return true
	case *ast.StarExpr:
		return isTypeExpr(e.X)
	case *ast.ParenExpr:
		return isTypeExpr(e.X)
	case *ast.IndexExpr: // generic instantiation, e.g. List[int]
		return isTypeExpr(e.X)
	case *ast.IndexListExpr:
		return isTypeExpr(e.X)
	default:
		return false
	}
}
