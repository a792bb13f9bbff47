package compiler

import (
	"bytes"
	"errors"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/scanner"
	"go/token"
	"strings"
)

// typeParam is one type parameter of a generated declaration.
type typeParam struct {
	Name       string
	Constraint string
	pos        token.Pos
}

// argument is one extra argument taken by a generated constructor.
type argument struct {
	Name  string
	Param string // type in the parameter list, e.g. ...int
	Field string // type of the captured field, e.g. []int

	pos      token.Pos
	mentions map[string]bool // identifiers used in the type
}

// snippet parses payload, a prefix of the payload of m, wrapped in prefix
// and suffix as a Go source file, mapping syntax errors back into the marker.
func snippet(diags *diagnostics, m *marker, what, prefix, payload, suffix string) (*token.FileSet, *ast.File) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", prefix+payload+suffix, parser.SkipObjectResolution)
	if err != nil {
		reportSyntaxError(diags, m, what, len(prefix), err)
		return nil, nil
	}
	return fset, f
}

func reportSyntaxError(diags *diagnostics, m *marker, what string, skip int, err error) {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		diags.errorf(m.at(list[0].Pos.Offset-skip), "malformed %s in %s: %s", what, m, list[0].Msg)
	} else {
		diags.errorf(m.pos, "malformed %s in %s: %v", what, m, err)
	}
}

// offsetOf maps a position of a snippet back to the payload.
func offsetOf(fset *token.FileSet, pos token.Pos, skip int) int {
	return fset.Position(pos).Offset - skip
}

func printExpr(fset *token.FileSet, expr ast.Expr) string {
	var b bytes.Buffer
	if err := printer.Fprint(&b, fset, expr); err != nil {
		panic(err)
	}
	return b.String()
}

// parseTypeParams parses the payload of a generics marker. Blank
// parameters cannot be named when instantiating helpers: they are reported
// and dropped.
func parseTypeParams(diags *diagnostics, m *marker) []typeParam {
	payload := strings.TrimRightFunc(m.payload, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if strings.TrimSpace(payload) == "" {
		return nil
	}
	// The trailing comma keeps [P *C] from parsing as an array length.
	const prefix = "package p; type _["
	fset, f := snippet(diags, m, "type parameter list", prefix, payload, ",] struct{}")
	if f == nil {
		return nil
	}
	spec := f.Decls[0].(*ast.GenDecl).Specs[0].(*ast.TypeSpec)

	var params []typeParam
	for _, field := range spec.TypeParams.List {
		constraint := printExpr(fset, field.Type)
		for _, name := range field.Names {
			pos := m.at(offsetOf(fset, name.Pos(), len(prefix)))
			if name.Name == "_" {
				diags.errorf(pos, "unsupported generic parameter kind in %s: blank type parameters cannot be instantiated", m)
				continue
			}
			params = append(params, typeParam{Name: name.Name, Constraint: constraint, pos: pos})
		}
	}
	return params
}

// parseArgs parses the payload of an args marker. Parameters that cannot
// be captured are reported and dropped.
func parseArgs(diags *diagnostics, m *marker, decl *declaration) []argument {
	if strings.TrimSpace(m.payload) == "" {
		return nil
	}
	const prefix = "package p; func _("
	fset, f := snippet(diags, m, "argument list", prefix, m.payload, ")")
	if f == nil {
		return nil
	}
	fn := f.Decls[0].(*ast.FuncDecl)

	var args []argument
	seen := map[string]bool{}
	for _, field := range fn.Type.Params.List {
		typ := field.Type
		fieldType := typ
		if e, ok := typ.(*ast.Ellipsis); ok {
			fieldType = &ast.ArrayType{Elt: e.Elt}
		}
		pos := m.at(offsetOf(fset, field.Pos(), len(prefix)))
		param := printExpr(fset, typ)

		if len(field.Names) == 0 {
			diags.errorf(pos, "argument of type %s in %s must be named", param, m)
			continue
		}
		if decl.isReceiverShaped(typ) {
			diags.errorf(pos, "receiver-shaped argument of type %s in %s: the %s value is already captured by the generated code", param, m, decl.name)
			continue
		}
		mentions := map[string]bool{}
		ast.Inspect(typ, func(n ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok {
				mentions[id.Name] = true
			}
			return true
		})

		for _, name := range field.Names {
			pos := m.at(offsetOf(fset, name.Pos(), len(prefix)))
			switch {
			case name.Name == "_":
				diags.errorf(pos, "blank argument in %s cannot be captured", m)
			case strings.HasPrefix(name.Name, "_"):
				diags.errorf(pos, "argument %s in %s: names starting with an underscore are reserved for generated code", name.Name, m)
			case seen[name.Name]:
				diags.errorf(pos, "duplicate argument %s in %s", name.Name, m)
			default:
				seen[name.Name] = true
				args = append(args, argument{
					Name:     name.Name,
					Param:    param,
					Field:    printExpr(fset, fieldType),
					pos:      pos,
					mentions: mentions,
				})
			}
		}
	}
	return args
}

// parseSeedExpr validates the payload of a seed marker as one expression.
func parseSeedExpr(diags *diagnostics, m *marker) (string, bool) {
	if strings.TrimSpace(m.payload) == "" {
		diags.errorf(m.pos, "malformed %s: expected an expression, use %s%s without parentheses for the generated seed", m, directivePrefix, m.name)
		return "", false
	}
	fset := token.NewFileSet()
	expr, err := parser.ParseExprFrom(fset, "", m.payload, parser.SkipObjectResolution)
	if err != nil {
		reportSyntaxError(diags, m, "expression", 0, err)
		return "", false
	}
	return printExpr(fset, expr), true
}
