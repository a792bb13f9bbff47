package compiler

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strings"
)

type seedKind int

const (
	unseeded seedKind = iota
	generatedSeed
	customSeed
)

// plan is what one generator needs to emit the code of one declaration.
type plan struct {
	RT   string // qualifier of the runtime package, e.g. "seeded."
	Name string
	Type string

	typeParams []typeParam
	Args       []argument
	Phantoms   []string
	This       string
	Fields     []fieldPlan
}

type fieldPlan struct {
	*field
	Seed    seedKind
	Expr    string // seed expression, or generated constructor
	Pointer bool
	Elem    string // pointee type of pointer fields with a generated seed
}

// TypeParams returns the parameter list of generated functions.
func (p *plan) TypeParams() string { return typeParamList(p.typeParams, false) }

// TypeDeclParams returns the parameter list of generated helper types.
func (p *plan) TypeDeclParams() string { return typeParamList(p.typeParams, true) }

// TypeArgs instantiates helper types with the parameters of their enclosing
// declaration.
func (p *plan) TypeArgs() string { return typeArgs(p.typeParams) }

// HelperFields renders the fields of a helper type: the encoded value when
// withThis is set, the arguments, then the phantoms.
func (p *plan) HelperFields(withThis bool) string {
	var b strings.Builder
	if withThis {
		fmt.Fprintf(&b, "\n\t%s *%s", p.This, p.Type)
	}
	for _, arg := range p.Args {
		fmt.Fprintf(&b, "\n\t%s %s", arg.Name, arg.Field)
	}
	for _, name := range p.Phantoms {
		fmt.Fprintf(&b, "\n\t_ %sPhantom[%s]", p.RT, name)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

func (p *plan) Expecting() string {
	if len(p.Fields) == 1 {
		return fmt.Sprintf("struct %s with 1 field", p.Name)
	}
	return fmt.Sprintf("struct %s with %d fields", p.Name, len(p.Fields))
}

// planner resolves the markers of declarations into plans.
type planner struct {
	fset     *token.FileSet
	receiver string
	imports  map[string]bool // names imported by the file
}

func (pl *planner) plan(decl *declaration, dir direction) *plan {
	diags := decl.diags
	p := &plan{
		Name:       decl.name,
		Type:       decl.typ(),
		typeParams: append([]typeParam(nil), decl.typeParams...),
	}
	taken := map[string]bool{}
	for _, tp := range decl.typeParams {
		taken[tp.Name] = true
	}

	for _, f := range []family{familyGenerics, familyArgs} {
		for _, m := range decl.markers[f] {
			if !m.hasPayload {
				diags.errorf(m.pos, "malformed marker %s: expected a parenthesized list", m)
			}
		}
	}

	var extra []typeParam
	if m := decl.markers.lookup(diags, familyGenerics, dir, decl.name); m != nil && m.hasPayload {
		for _, tp := range parseTypeParams(diags, m) {
			switch {
			case taken[tp.Name]:
				diags.errorf(tp.pos, "generic parameter %s in %s is already declared", tp.Name, m)
			case pl.imports[tp.Name]:
				diags.errorf(tp.pos, "generic parameter %s in %s shadows an imported package", tp.Name, m)
			default:
				taken[tp.Name] = true
				extra = append(extra, tp)
			}
		}
	}
	p.typeParams = append(p.typeParams, extra...)

	suffix := "Seed"
	if dir == encode {
		suffix = "Seeded"
	}
	// used maps the identifiers referenced inside generated function
	// bodies to the field they come from.
	used := map[string]string{}
	for _, f := range decl.fields {
		fp := fieldPlan{field: f}
		entity := "field " + f.WireName
		if m := f.markers.lookup(diags, familySeed, dir, entity); m != nil {
			if m.hasPayload {
				if expr, ok := parseSeedExpr(diags, m); ok {
					fp.Seed, fp.Expr = customSeed, expr
				}
			} else if ctor, elem, ok := pl.generatedSeed(decl, f, m, suffix); ok {
				fp.Seed, fp.Expr = generatedSeed, ctor
				fp.Pointer, fp.Elem = elem != "", elem
				if _, ok := used[rootName(ctor)]; !ok {
					used[rootName(ctor)] = f.WireName
				}
			}
		}
		if dir == decode || f.Name == "" || fp.Seed == generatedSeed {
			freeIdents(f.typ, func(name string) {
				if _, ok := used[name]; !ok {
					used[name] = f.WireName
				}
			})
		}
		p.Fields = append(p.Fields, fp)
	}

	if m := decl.markers.lookup(diags, familyArgs, dir, decl.name); m != nil && m.hasPayload {
		for _, arg := range parseArgs(diags, m, decl) {
			field, shadows := used[arg.Name]
			switch {
			case taken[arg.Name]:
				diags.errorf(arg.pos, "argument %s in %s conflicts with a type parameter", arg.Name, m)
			case pl.imports[arg.Name]:
				diags.errorf(arg.pos, "argument %s in %s shadows an imported package", arg.Name, m)
			case shadows:
				diags.errorf(arg.pos, "argument %s in %s shadows a name used by the generated code for field %s", arg.Name, m, field)
			default:
				p.Args = append(p.Args, arg)
			}
		}
	}
	for _, tp := range extra {
		mentioned := false
		for _, arg := range p.Args {
			mentioned = mentioned || arg.mentions[tp.Name]
		}
		if !mentioned {
			p.Phantoms = append(p.Phantoms, tp.Name)
		}
	}

	if dir == encode {
		p.This = pl.receiver
		for _, arg := range p.Args {
			taken[arg.Name] = true
		}
		for {
			_, shadows := used[p.This]
			if !taken[p.This] && !pl.imports[p.This] && !shadows {
				break
			}
			p.This += "_"
		}
	}
	return p
}

// generatedSeed names the constructor generated for the type of f, such as
// ItemSeed or pkg.BoxSeeded[int], and the pointee type when f is a pointer.
// Types without a constructor are reported and f is left unseeded.
func (pl *planner) generatedSeed(decl *declaration, f *field, m *marker, suffix string) (ctor, elem string, ok bool) {
	expr := f.typ
	if star, ok := expr.(*ast.StarExpr); ok {
		expr, elem = star.X, printExpr(pl.fset, star.X)
	}
	for {
		paren, ok := expr.(*ast.ParenExpr)
		if !ok {
			break
		}
		expr = paren.X
	}
	var indices []ast.Expr
	switch e := expr.(type) {
	case *ast.IndexExpr:
		expr, indices = e.X, []ast.Expr{e.Index}
	case *ast.IndexListExpr:
		expr, indices = e.X, e.Indices
	}

	switch e := expr.(type) {
	case *ast.Ident:
		for _, tp := range decl.typeParams {
			if tp.Name == e.Name {
				decl.diags.errorf(m.pos, "%s on field %s: type parameter %s has no generated seed, supply an expression", m, f.WireName, e.Name)
				return "", "", false
			}
		}
		if _, predeclared := types.Universe.Lookup(e.Name).(*types.TypeName); predeclared {
			decl.diags.errorf(m.pos, "%s on field %s: predeclared type %s has no generated seed, supply an expression", m, f.WireName, e.Name)
			return "", "", false
		}
		ctor = e.Name + suffix
	case *ast.SelectorExpr:
		ctor = printExpr(pl.fset, e.X) + "." + e.Sel.Name + suffix
	default:
		decl.diags.errorf(m.pos, "%s on field %s: type %s has no generated seed, supply an expression", m, f.WireName, f.Type)
		return "", "", false
	}
	if len(indices) > 0 {
		ctor += "["
		for i, index := range indices {
			if i > 0 {
				ctor += ", "
			}
			ctor += printExpr(pl.fset, index)
		}
		ctor += "]"
	}
	return ctor, elem, true
}

// rootName returns the identifier a constructor expression starts with.
func rootName(ctor string) string {
	if i := strings.IndexAny(ctor, ".["); i >= 0 {
		return ctor[:i]
	}
	return ctor
}

// freeIdents calls fn for every identifier of a type expression that refers
// to a declaration: selected names and field names are skipped.
func freeIdents(expr ast.Expr, fn func(string)) {
	ast.Inspect(expr, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.SelectorExpr:
			freeIdents(n.X, fn)
			return false
		case *ast.Field:
			freeIdents(n.Type, fn)
			return false
		case *ast.Ident:
			fn(n.Name)
		}
		return true
	})
}
