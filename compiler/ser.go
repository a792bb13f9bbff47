package compiler

import "fmt"

// Write returns the value passed to SerializeField for the field, read
// through the pointer named this.
func (f fieldPlan) Write(this string) string {
	ref := "&" + this + "." + f.Name
	if f.Name == "" {
		ref = "new(" + f.Type + ")"
	}
	switch f.Seed {
	case customSeed:
		return fmt.Sprintf("(%s).Seeded(%s)", f.Expr, ref)
	case generatedSeed:
		if f.Pointer {
			if f.Name == "" {
				return f.Expr + "(new(" + f.Elem + "))"
			}
			return f.Expr + "(" + this + "." + f.Name + ")"
		}
		return f.Expr + "(" + ref + ")"
	default:
		return ref
	}
}
