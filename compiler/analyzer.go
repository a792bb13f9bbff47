package compiler

import (
	"go/ast"
	"go/types"
	"strconv"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports the diagnostics seedgen would report, without
// generating code.
var Analyzer = &analysis.Analyzer{
	Name: "seeded",
	Doc:  "check //seeded: markers\n\nThe analyzer reports misplaced, repeated and malformed markers, and types seedgen cannot generate code for.",
	URL:  "https://pkg.go.dev/github.com/stealthrocket/seeded/compiler",
	Run:  run,
}

var (
	analyzerReceiver string
	analyzerTypes    string
)

func init() {
	Analyzer.Flags.StringVar(&analyzerReceiver, "receiver", "this", "name binding the serialized value in generated code")
	Analyzer.Flags.StringVar(&analyzerTypes, "types", "", "comma-separated list of types to check as if they were derived")
}

func run(pass *analysis.Pass) (any, error) {
	options := []Option{WithReceiverName(analyzerReceiver)}
	if analyzerTypes != "" {
		options = append(options, WithTypes(strings.Split(analyzerTypes, ",")...))
	}
	c := newCompiler(options...)

	for _, file := range pass.Files {
		if ast.IsGenerated(file) {
			continue
		}
		for _, d := range c.check(pass, file) {
			related := make([]analysis.RelatedInformation, len(d.Related))
			for i, r := range d.Related {
				related[i] = analysis.RelatedInformation{Pos: r.Pos, Message: r.Message}
			}
			pass.Report(analysis.Diagnostic{
				Pos:     d.Pos,
				Message: d.Message,
				Related: related,
			})
		}
	}
	return nil, nil
}

// check runs both generators' planning over file.
func (c *compiler) check(pass *analysis.Pass, file *ast.File) Diagnostics {
	decls, list := collectDecls(pass.Fset, file, c.types)
	imported := map[string]bool{}
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := fileContext{}.importName(path)
		if spec.Name != nil {
			name = spec.Name.Name
		} else if pass.TypesInfo != nil {
			if pkgName, ok := pass.TypesInfo.Implicits[spec].(*types.PkgName); ok {
				name = pkgName.Name()
			}
		}
		imported[name] = true
	}
	delete(imported, "_")
	delete(imported, ".")
	pl := &planner{fset: pass.Fset, receiver: c.receiver, imports: imported}
	for _, decl := range decls {
		if decl.de {
			pl.plan(decl, decode)
		}
		if decl.ser {
			pl.plan(decl, encode)
		}
		list = append(list, decl.diags.list...)
	}
	list = list.dedup()
	list.Sort()
	return list
}
