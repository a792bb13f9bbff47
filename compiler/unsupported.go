package compiler

import (
	"fmt"
	"go/ast"
)

// unsupported checks a type declaration for shapes the generators cannot
// handle.
func unsupported(spec *ast.TypeSpec) error {
	if spec.Assign.IsValid() {
		return fmt.Errorf("never supported: type aliases, derive on the aliased type instead")
	}
	switch t := spec.Type.(type) {
	case *ast.StructType:
		return nil
	case *ast.InterfaceType:
		return fmt.Errorf("not supported yet: interface types")
	case *ast.ArrayType:
		if t.Len == nil {
			return fmt.Errorf("not supported yet: slice types")
		}
		return fmt.Errorf("not supported yet: array types")
	case *ast.MapType:
		return fmt.Errorf("not supported yet: map types")
	case *ast.ChanType:
		return fmt.Errorf("not supported yet: channel types")
	case *ast.FuncType:
		return fmt.Errorf("not supported yet: function types")
	case *ast.StarExpr:
		return fmt.Errorf("not supported yet: pointer types")
	default:
		return fmt.Errorf("not supported yet: defined types over %T", t)
	}
}
