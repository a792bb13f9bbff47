package compiler

import (
	"go/ast"
	"go/build/constraint"
	"reflect"
	"strings"
)

func containsExpr(expr, contains constraint.Expr) bool {
	switch x := expr.(type) {
	case *constraint.AndExpr:
		return containsExpr(x.X, contains) || containsExpr(x.Y, contains)
	case *constraint.OrExpr:
		return containsExpr(x.X, contains) && containsExpr(x.Y, contains)
	default:
		return reflect.DeepEqual(expr, contains)
	}
}

// withBuildTags combines the constraint of a source file with the
// configured tags, which are written in //go:build syntax.
func withBuildTags(expr constraint.Expr, buildTags string) (constraint.Expr, error) {
	buildTags = strings.TrimSpace(buildTags)
	if buildTags == "" {
		return expr, nil
	}
	tags, err := constraint.Parse("//go:build " + buildTags)
	if err != nil {
		return nil, err
	}
	if expr == nil {
		return tags, nil
	}
	if containsExpr(expr, tags) {
		return expr, nil
	}
	return &constraint.AndExpr{X: expr, Y: tags}, nil
}

func parseBuildTags(file *ast.File) (constraint.Expr, error) {
	groups := commentGroupsOf(file)

	for _, group := range groups {
		for _, c := range group.List {
			if constraint.IsGoBuild(c.Text) {
				return constraint.Parse(c.Text)
			}
		}
	}

	var plusBuildLines constraint.Expr
	for _, group := range groups {
		for _, c := range group.List {
			if constraint.IsPlusBuild(c.Text) {
				x, err := constraint.Parse(c.Text)
				if err != nil {
					return nil, err
				}
				if plusBuildLines == nil {
					plusBuildLines = x
				} else {
					plusBuildLines = &constraint.AndExpr{X: plusBuildLines, Y: x}
				}
			}
		}
	}

	return plusBuildLines, nil
}
