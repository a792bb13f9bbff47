package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"
)

const generatedHeader = "// Code generated by seedgen. DO NOT EDIT."

// Compile generates seeded code for the packages at path.
//
// The path argument can either be a path to a package, or a pattern
// that matches multiple packages (for example, /path/to/module/...).
// The path can be absolute, or relative to the current working directory.
//
// Files are written even when some declarations have diagnostics, in
// which case the returned error is a *DiagnosticsError listing all of
// them.
func Compile(path string, options ...Option) error {
	c := newCompiler(options...)
	c.fset = token.NewFileSet()
	return c.compile(path)
}

type compiler struct {
	outputPrefix   string
	buildTags      string
	runtimePackage string
	receiver       string
	types          map[string]bool
	concurrency    int

	fset *token.FileSet

	mutex sync.Mutex
	diags Diagnostics
}

func (c *compiler) compile(path string) error {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	var dotdotdot bool
	absPath, dotdotdot = strings.CutSuffix(absPath, "...")
	if s, err := os.Stat(absPath); err != nil {
		return err
	} else if !s.IsDir() {
		// Make sure we're loading whole packages.
		absPath = filepath.Dir(absPath)
	}
	var pattern string
	if dotdotdot {
		pattern = "./..."
	} else {
		pattern = "."
	}

	log.Printf("reading and parsing")
	conf := &packages.Config{
		Mode: packages.NeedName | packages.NeedModule |
			packages.NeedImports | packages.NeedFiles |
			packages.NeedSyntax,
		Fset: c.fset,
		Dir:  absPath,
	}
	pkgs, err := packages.Load(conf, pattern)
	if err != nil {
		return fmt.Errorf("packages.Load %q: %w", path, err)
	}
	for _, p := range pkgs {
		for _, e := range p.Errors {
			if e.Kind == packages.ParseError {
				return e
			}
			log.Printf("%s: %s", p.PkgPath, e)
		}
	}

	names := c.packageNames(absPath, pkgs)

	var group errgroup.Group
	group.SetLimit(c.concurrency)
	for _, p := range pkgs {
		group.Go(func() error { return c.compilePackage(p, names) })
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if len(c.diags) > 0 {
		c.diags.Sort()
		return &DiagnosticsError{Fset: c.fset, List: c.diags}
	}
	log.Printf("done")
	return nil
}

// packageNames resolves the names of the packages imported by pkgs. Names
// that cannot be resolved are guessed from import paths.
func (c *compiler) packageNames(dir string, pkgs []*packages.Package) map[string]string {
	var paths []string
	seen := map[string]bool{}
	for _, p := range pkgs {
		for path := range p.Imports {
			if !seen[path] && path != "C" {
				seen[path] = true
				paths = append(paths, path)
			}
		}
	}
	names := map[string]string{}
	if len(paths) == 0 {
		return names
	}
	imported, err := packages.Load(&packages.Config{Mode: packages.NeedName, Dir: dir}, paths...)
	if err != nil {
		log.Printf("resolving package names: %s", err)
		return names
	}
	for _, p := range imported {
		if p.Name != "" {
			names[p.PkgPath] = p.Name
		}
	}
	return names
}

func (c *compiler) report(diags Diagnostics) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.diags = append(c.diags, diags...)
}

func (c *compiler) compilePackage(p *packages.Package, names map[string]string) error {
	log.Printf("generating package %s", p.PkgPath)

	ctx := fileContext{
		pkgPath:  p.PkgPath,
		names:    names,
		topLevel: topLevelNames(p.Syntax...),
	}
	sources := map[string]bool{}
	written := map[string]bool{}
	var dirs []string
	for _, file := range p.Syntax {
		filename := c.fset.Position(file.Package).Filename
		sources[filename] = true
		if ast.IsGenerated(file) || strings.HasSuffix(filename, "_test.go") {
			continue
		}
		dir := filepath.Dir(filename)
		if len(dirs) == 0 || dirs[len(dirs)-1] != dir {
			dirs = append(dirs, dir)
		}

		result, err := c.generateFile(c.fset, file, ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		c.report(result.Diagnostics)
		if result.Source == nil {
			continue
		}
		output := filepath.Join(dir, c.outputPrefix+filepath.Base(filename))
		log.Printf("writing %s", output)
		if err := os.WriteFile(output, result.Source, 0o644); err != nil {
			return err
		}
		written[output] = true
	}

	for _, dir := range dirs {
		if err := c.removeStale(dir, sources, written); err != nil {
			return err
		}
	}
	return nil
}

// removeStale removes the files generated for sources that either no
// longer exist or no longer declare seeded types. Outputs of sources
// excluded by build constraints are left alone.
func (c *compiler) removeStale(dir string, sources, written map[string]bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		source, ok := strings.CutPrefix(name, c.outputPrefix)
		if !ok || entry.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		output := filepath.Join(dir, name)
		source = filepath.Join(dir, source)
		if written[output] {
			continue
		}
		if _, err := os.Stat(source); err == nil && !sources[source] {
			continue
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		generated, err := isGeneratedFile(output)
		if err != nil {
			return err
		}
		if generated {
			log.Printf("removing %s", output)
			if err := os.Remove(output); err != nil {
				return err
			}
		}
	}
	return nil
}

func isGeneratedFile(path string) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return bytes.HasPrefix(b, []byte(generatedHeader+"\n")), nil
}
