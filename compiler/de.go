package compiler

import "fmt"

// Target is where VisitSeq stores a decoded field.
func (f fieldPlan) Target() string {
	if f.Name == "" {
		return "_"
	}
	return "_r." + f.Name
}

// Read returns the expression decoding the next element of _seq into the
// field, yielding (value, ok, err).
func (f fieldPlan) Read(rt string) string {
	switch f.Seed {
	case customSeed:
		return fmt.Sprintf("%sNextElementSeed[%s](_seq, (%s).Seed())", rt, f.Type, f.Expr)
	case generatedSeed:
		seed := f.Expr + "()"
		if f.Pointer {
			seed = rt + "PointerSeed(" + seed + ")"
		}
		return fmt.Sprintf("%sNextElementSeed[%s](_seq, %s)", rt, f.Type, seed)
	default:
		return fmt.Sprintf("%sNextElement[%s](_seq)", rt, f.Type)
	}
}
