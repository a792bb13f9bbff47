package compiler

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

// Result is the outcome of generating the seeded code of one source file.
type Result struct {
	// Source is the formatted generated file, or nil when the source file
	// has no type to generate code for.
	Source []byte

	Diagnostics Diagnostics
}

// GenerateFile generates the seeded code of the struct types declared in
// file. Problems with markers are returned as diagnostics and do not
// prevent generating the rest of the file; declarations with unsupported
// shapes are left out.
//
// The error is non-nil only when the generated file could not be produced.
func GenerateFile(fset *token.FileSet, file *ast.File, options ...Option) (*Result, error) {
	c := newCompiler(options...)
	return c.generateFile(fset, file, fileContext{topLevel: topLevelNames(file)})
}

// fileContext is what the generator knows about the package of a file.
type fileContext struct {
	pkgPath  string
	names    map[string]string // package names by import path
	topLevel map[string]bool
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// importName returns the name of the package imported by path.
func (ctx fileContext) importName(p string) string {
	if name, ok := ctx.names[p]; ok {
		return name
	}
	base := path.Base(p)
	if majorVersion.MatchString(base) && path.Dir(p) != "." {
		base = path.Base(path.Dir(p))
	}
	base = strings.TrimPrefix(base, "go-")
	base = strings.TrimSuffix(strings.TrimSuffix(base, ".go"), "-go")
	if i := strings.IndexAny(base, ".-"); i >= 0 {
		base = base[:i]
	}
	return base
}

type importsmap struct {
	byName map[string]string
	byPath map[string]string
}

// Reserve marks name as taken, by an import of path or by an identifier
// when path is empty.
func (m *importsmap) Reserve(name, p string) {
	if m.byName == nil {
		m.byName = make(map[string]string)
		m.byPath = make(map[string]string)
	}
	m.byName[name] = p
	if _, ok := m.byPath[p]; p != "" && !ok {
		m.byPath[p] = name
	}
}

// Add a new import and assign it an imported name, avoiding clashes.
func (m *importsmap) Add(p, original string) string {
	name, ok := m.byPath[p]
	if ok {
		return name
	}
	for i := 0; i <= math.MaxInt; i++ {
		name := original
		if i > 0 {
			name = fmt.Sprintf("%s_%d", original, i)
		}
		_, ok = m.byName[name]
		if ok { // name clash
			continue
		}
		m.Reserve(name, p)
		return name
	}

	panic("exhausted suffixes")
}

func (c *compiler) generateFile(fset *token.FileSet, file *ast.File, ctx fileContext) (*Result, error) {
	decls, list := collectDecls(fset, file, c.types)
	result := &Result{}
	defer func() {
		result.Diagnostics = list.dedup()
		result.Diagnostics.Sort()
	}()
	if len(decls) == 0 {
		return result, nil
	}

	var imports importsmap
	var specs []importSpec
	imported := map[string]bool{}
	rt := ""
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return nil, err
		}
		name := ctx.importName(p)
		explicit := ""
		if spec.Name != nil {
			name, explicit = spec.Name.Name, spec.Name.Name
		}
		switch name {
		case "_", "C":
			continue
		case ".":
			specs = append(specs, importSpec{Name: name, Path: p})
			continue
		}
		imports.Reserve(name, p)
		imported[name] = true
		specs = append(specs, importSpec{Name: explicit, Path: p})
		if p == c.runtimePackage && rt == "" {
			rt = name + "."
		}
	}

	pl := &planner{fset: fset, receiver: c.receiver, imports: imported}
	data := fileData{Package: file.Name.Name}
	var plans []*plan
	for _, decl := range decls {
		var d declData
		if decl.de {
			d.De = pl.plan(decl, decode)
			plans = append(plans, d.De)
		}
		if decl.ser {
			d.Ser = pl.plan(decl, encode)
			plans = append(plans, d.Ser)
		}
		list = append(list, decl.diags.list...)
		data.Decls = append(data.Decls, d)
	}

	if rt == "" && ctx.pkgPath != c.runtimePackage {
		for name := range ctx.topLevel {
			imports.Reserve(name, "")
		}
		for _, p := range plans {
			for _, tp := range p.typeParams {
				imports.Reserve(tp.Name, "")
			}
			for _, arg := range p.Args {
				imports.Reserve(arg.Name, "")
			}
			if p.This != "" {
				imports.Reserve(p.This, "")
			}
		}
		name := imports.Add(c.runtimePackage, ctx.importName(c.runtimePackage))
		spec := importSpec{Path: c.runtimePackage}
		if name != ctx.importName(c.runtimePackage) {
			spec.Name = name
		}
		specs = append(specs, spec)
		rt = name + "."
	}
	for _, p := range plans {
		p.RT = rt
	}
	data.Imports = specs

	buildTags, err := parseBuildTags(file)
	if err != nil {
		return nil, err
	}
	if buildTags, err = withBuildTags(buildTags, c.buildTags); err != nil {
		return nil, fmt.Errorf("invalid build tags %q: %w", c.buildTags, err)
	}
	if buildTags != nil {
		data.Constraint = "//go:build " + buildTags.String()
	}

	var b bytes.Buffer
	if err := templates.Execute(&b, data); err != nil {
		return nil, err
	}
	source, err := tidy(b.Bytes(), ctx)
	if err != nil {
		return nil, err
	}
	result.Source = source
	return result, nil
}

// tidy removes the imports that generated code does not use and formats
// the file.
func tidy(source []byte, ctx fileContext) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("generated invalid code: %w\n%s", err, source)
	}
	for _, spec := range f.Imports {
		p, _ := strconv.Unquote(spec.Path.Value)
		var specName, name string
		if spec.Name != nil {
			specName, name = spec.Name.Name, spec.Name.Name
		} else {
			name = ctx.importName(p)
		}
		if name == "." || usesName(f, name) {
			continue
		}
		astutil.DeleteNamedImport(fset, f, specName, p)
	}
	for _, d := range f.Decls {
		if gd, ok := d.(*ast.GenDecl); ok && gd.Tok == token.IMPORT && len(gd.Specs) == 1 {
			gd.Lparen, gd.Rparen = token.NoPos, token.NoPos
		}
	}
	var out bytes.Buffer
	if err := format.Node(&out, fset, f); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// usesName reports whether a package named name is referenced in f.
func usesName(f *ast.File, name string) (used bool) {
	ast.Inspect(f, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return !used
		}
		if id, ok := sel.X.(*ast.Ident); ok && id.Name == name && id.Obj == nil {
			used = true
		}
		return !used
	})
	return used
}

// topLevelNames returns the names declared at the top level of files.
func topLevelNames(files ...*ast.File) map[string]bool {
	names := map[string]bool{}
	for _, f := range files {
		for _, d := range f.Decls {
			switch d := d.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					names[d.Name.Name] = true
				}
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.TypeSpec:
						names[s.Name.Name] = true
					case *ast.ValueSpec:
						for _, n := range s.Names {
							names[n.Name] = true
						}
					}
				}
			}
		}
	}
	return names
}
