package compiler

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/go/analysis"
)

func TestAnalyzer(t *testing.T) {
	src := `package p

import "strings"

//seeded:derive
//seeded:args(strings int, n int)
type T struct {
	//seeded:seed(a)
	//seeded:seed(b)
	F int
	//seeded:derive
	G int
}

//seeded:derive
type S interface{}
`
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "p.go", src, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}

	var got []diagnostic
	pass := &analysis.Pass{
		Analyzer: Analyzer,
		Fset:     fset,
		Files:    []*ast.File{f},
		Report: func(d analysis.Diagnostic) {
			g := diagnostic{Line: fset.Position(d.Pos).Line, Message: d.Message}
			for _, r := range d.Related {
				g.Related = append(g.Related, fset.Position(r.Pos).Line)
			}
			got = append(got, g)
		},
	}
	if _, err := Analyzer.Run(pass); err != nil {
		t.Fatal(err)
	}

	want := []diagnostic{
		{Line: 6, Message: "argument strings in //seeded:args shadows an imported package"},
		{Line: 9, Message: "repeated //seeded:seed markers on field F", Related: []int{8, 9}},
		{Line: 11, Message: "misplaced marker //seeded:derive: it applies to type declarations"},
		{Line: 16, Message: "cannot derive seeded code for S: not supported yet: interface types"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzerSkipsGeneratedFiles(t *testing.T) {
	src := `// Code generated by seedgen. DO NOT EDIT.

package p

//seeded:derive
type S interface{}
`
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "seeded_p.go", src, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}
	pass := &analysis.Pass{
		Analyzer: Analyzer,
		Fset:     fset,
		Files:    []*ast.File{f},
		Report: func(d analysis.Diagnostic) {
			t.Errorf("unexpected diagnostic: %s", d.Message)
		},
	}
	if _, err := Analyzer.Run(pass); err != nil {
		t.Fatal(err)
	}
}
