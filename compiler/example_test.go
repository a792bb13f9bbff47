package compiler

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// The generated files checked in under examples/ must match what the
// generator currently produces.
func TestGenerateCheckedInExamples(t *testing.T) {
	dir := filepath.Join("..", "examples", "inventory")
	source, err := os.ReadFile(filepath.Join(dir, "inventory.go"))
	if err != nil {
		t.Fatal(err)
	}
	want, err := os.ReadFile(filepath.Join(dir, "seeded_inventory.go"))
	if err != nil {
		t.Fatal(err)
	}

	result, fset := generate(t, string(source))
	if len(result.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", result.Diagnostics.Format(fset))
	}

	got := parseGenerated(t, result.Source)
	expected := parseGenerated(t, want)
	if diff := cmp.Diff(declNames(expected), declNames(got)); diff != "" {
		t.Errorf("declarations mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(importPaths(expected), importPaths(got)); diff != "" {
		t.Errorf("imports mismatch (-want +got):\n%s", diff)
	}

	for _, fn := range [][2]string{
		{"_ItemVisitor", "VisitSeq"},
		{"_ItemSeeded", "Serialize"},
		{"_SlotVisitor", "VisitSeq"},
		{"_SlotSeeded", "Serialize"},
		{"_LabeledVisitor", "VisitSeq"},
		{"_LabeledSeeded", "Serialize"},
		{"", "LabeledSeed"},
		{"", "LabeledSeeded"},
	} {
		w := funcSource(t, want, fn[0], fn[1])
		g := funcSource(t, result.Source, fn[0], fn[1])
		if diff := cmp.Diff(w, g); diff != "" {
			t.Errorf("%s.%s mismatch (-want +got):\n%s", fn[0], fn[1], diff)
		}
	}

	doc := []byte("// ItemSeed returns a seed decoding Item values from the sequence of their fields.\n")
	if !bytes.Contains(want, doc) || !bytes.Contains(result.Source, doc) {
		t.Errorf("ItemSeed doc comment mismatch:\n%s", result.Source)
	}
}
