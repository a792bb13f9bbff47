package compiler

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCompile(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"go.mod": "module example.com/geo\n\ngo 1.22\n",
		"point.go": `package geo

//seeded:derive
type Point struct {
	X, Y int32
}
`,
		"plain.go": `package geo

type Plain struct{}
`,
		"seeded_plain.go": generatedHeader + "\n\npackage geo\n",
		"seeded_gone.go":  generatedHeader + "\n\npackage geo\n",
		"seeded_kept.go":  "package geo\n",
		"shapes/shapes.go": `package shapes

//seeded:derive
type Shape interface{}

//seeded:derive(ser)
type Square struct {
	Side int
}
`,
	})

	err := Compile(dir+"/...", WithConcurrency(2))
	var diags *DiagnosticsError
	if !errors.As(err, &diags) {
		t.Fatalf("Compile error = %v, want diagnostics", err)
	}
	if len(diags.List) != 1 || !strings.Contains(diags.List[0].Message, "interface types") {
		t.Errorf("unexpected diagnostics:\n%s", diags)
	}
	if !strings.Contains(diags.Error(), "shapes.go:4:6: cannot derive seeded code for Shape") {
		t.Errorf("unexpected diagnostics:\n%s", diags)
	}

	for _, name := range []string{"seeded_point.go", "shapes/seeded_shapes.go"} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(b, []byte(generatedHeader+"\n")) {
			t.Errorf("%s: missing header:\n%s", name, b)
		}
	}
	b, err := os.ReadFile(filepath.Join(dir, "shapes/seeded_shapes.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte("func SquareSeeded(this *Square) seeded.Seeded {")) {
		t.Errorf("unexpected output:\n%s", b)
	}

	for _, name := range []string{"seeded_plain.go", "seeded_gone.go"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s: stale file not removed (%v)", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "seeded_kept.go")); err != nil {
		t.Errorf("hand-written file removed: %v", err)
	}
}
