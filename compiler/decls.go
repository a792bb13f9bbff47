package compiler

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
)

// declaration is a struct type with seeded code to generate.
type declaration struct {
	name       string
	pos        token.Pos
	typeParams []typeParam
	fields     []*field
	markers    markerSet
	de, ser    bool

	diags *diagnostics
}

// field is one struct field, in declaration order. Grouped names expand
// to one field each.
type field struct {
	Name     string // empty for blank fields
	WireName string
	Type     string

	typ     ast.Expr
	pos     token.Pos
	markers markerSet
}

// typ returns the declared type instantiated with its own parameters.
func (d *declaration) typ() string {
	return d.name + typeArgs(d.typeParams)
}

// isReceiverShaped reports whether expr denotes the declared type or a
// pointer to it.
func (d *declaration) isReceiverShaped(expr ast.Expr) bool {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	for {
		switch e := expr.(type) {
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name == d.name
		default:
			return false
		}
	}
}

// collectDecls finds the struct types of file that have seeded code to
// generate: those carrying a derive marker, and those listed in types.
// Diagnostics of the returned declarations stay in their collector.
func collectDecls(fset *token.FileSet, file *ast.File, types map[string]bool) (decls []*declaration, list Diagnostics) {
	for _, d := range file.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, s := range gd.Specs {
			spec := s.(*ast.TypeSpec)
			decl := collectDecl(fset, gd, spec, types[spec.Name.Name])
			if decl.de || decl.ser {
				decls = append(decls, decl)
			} else {
				list = append(list, decl.diags.list...)
			}
		}
	}
	return decls, list
}

func collectDecl(fset *token.FileSet, gd *ast.GenDecl, spec *ast.TypeSpec, listed bool) *declaration {
	decl := &declaration{
		name:  spec.Name.Name,
		pos:   spec.Name.Pos(),
		diags: &diagnostics{},
		de:    listed,
		ser:   listed,
	}
	diags := decl.diags

	var markers []*marker
	for _, m := range parseMarkers(diags, typeCommentsOf(gd, spec)...) {
		if m.family.fieldLevel() {
			diags.errorf(m.pos, "misplaced marker %s: it applies to struct fields", m)
			continue
		}
		markers = append(markers, m)
	}
	decl.markers = newMarkerSet(markers)
	if m := decl.markers.lookup(diags, familyDerive, both, decl.name); m != nil {
		de, ser := deriveDirections(diags, m)
		decl.de = decl.de || de
		decl.ser = decl.ser || ser
	}

	st, isStruct := spec.Type.(*ast.StructType)
	if !decl.de && !decl.ser {
		for _, f := range []family{familyGenerics, familyArgs} {
			for _, m := range decl.markers[f] {
				diags.errorf(m.pos, "marker %s has no effect without %sderive", m, directivePrefix)
			}
		}
		if isStruct {
			for _, f := range st.Fields.List {
				for _, m := range parseMarkers(diags, fieldCommentsOf(f)...) {
					diags.errorf(m.pos, "marker %s has no effect without %sderive on %s", m, directivePrefix, decl.name)
				}
			}
		}
		return decl
	}
	if err := unsupported(spec); err != nil {
		diags.errorf(decl.pos, "cannot derive seeded code for %s: %v", decl.name, err)
		decl.de, decl.ser = false, false
		return decl
	}

	if spec.TypeParams != nil {
		for _, f := range spec.TypeParams.List {
			constraint := printExpr(fset, f.Type)
			for _, name := range f.Names {
				p := typeParam{Name: name.Name, Constraint: constraint, pos: name.Pos()}
				if p.Name == "_" {
					// Blank parameters of the type itself still need a
					// name to instantiate it.
					p.Name = fmt.Sprintf("_P%d", len(decl.typeParams))
				}
				decl.typeParams = append(decl.typeParams, p)
			}
		}
	}

	for _, f := range st.Fields.List {
		var markers []*marker
		for _, m := range parseMarkers(diags, fieldCommentsOf(f)...) {
			if !m.family.fieldLevel() {
				diags.errorf(m.pos, "misplaced marker %s: it applies to type declarations", m)
				continue
			}
			markers = append(markers, m)
		}
		set := newMarkerSet(markers)
		typ := printExpr(fset, f.Type)

		if len(f.Names) == 0 {
			name := embeddedName(f.Type)
			wireName := name
			if name == "" {
				wireName = strconv.Itoa(len(decl.fields))
			}
			decl.fields = append(decl.fields, &field{
				Name:     name,
				WireName: wireName,
				Type:     typ,
				typ:      f.Type,
				pos:      f.Pos(),
				markers:  set,
			})
			continue
		}
		for _, name := range f.Names {
			fd := &field{
				Name:     name.Name,
				WireName: name.Name,
				Type:     typ,
				typ:      f.Type,
				pos:      name.Pos(),
				markers:  set,
			}
			if fd.Name == "_" {
				fd.Name = ""
				fd.WireName = strconv.Itoa(len(decl.fields))
			}
			decl.fields = append(decl.fields, fd)
		}
	}
	return decl
}

func embeddedName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.SelectorExpr:
			return e.Sel.Name
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

func typeArgs(params []typeParam) string {
	if len(params) == 0 {
		return ""
	}
	s := "["
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += p.Name
	}
	return s + "]"
}

// typeParamList renders params for a declaration. Type declarations with
// a single parameter get a trailing comma so that [P *C] is not read as an
// array length; gofmt drops it when it is not needed.
func typeParamList(params []typeParam, typeDecl bool) string {
	if len(params) == 0 {
		return ""
	}
	s := "["
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += p.Name + " " + p.Constraint
	}
	if typeDecl && len(params) == 1 {
		s += ","
	}
	return s + "]"
}
