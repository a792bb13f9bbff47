package compiler

import (
	"go/ast"
)

func appendCommentGroup(groups []*ast.CommentGroup, group *ast.CommentGroup) []*ast.CommentGroup {
	if group != nil && len(group.List) > 0 {
		groups = append(groups, group)
	}
	return groups
}

// commentGroupsOf returns the comment groups preceding the package clause,
// which is where build constraints live.
func commentGroupsOf(file *ast.File) []*ast.CommentGroup {
	groups := make([]*ast.CommentGroup, 0, 1+len(file.Comments))
	for _, group := range file.Comments {
		if group.End() < file.Package {
			groups = append(groups, group)
		}
	}
	return groups
}

// typeCommentsOf returns the comments attached to a type spec. The doc of
// the enclosing declaration counts when it holds a single spec, since
// that is where gofmt puts it.
func typeCommentsOf(decl *ast.GenDecl, spec *ast.TypeSpec) []*ast.CommentGroup {
	var groups []*ast.CommentGroup
	if !decl.Lparen.IsValid() {
		groups = appendCommentGroup(groups, decl.Doc)
	}
	groups = appendCommentGroup(groups, spec.Doc)
	groups = appendCommentGroup(groups, spec.Comment)
	return groups
}

func fieldCommentsOf(field *ast.Field) []*ast.CommentGroup {
	var groups []*ast.CommentGroup
	groups = appendCommentGroup(groups, field.Doc)
	groups = appendCommentGroup(groups, field.Comment)
	return groups
}
