package compiler

import (
	"embed"
	"strconv"
	"strings"
	"text/template"
)

//go:embed _templates/*.go.tmpl
var embeddedTemplatesFS embed.FS

var templates = template.Must(template.New("file.go.tmpl").
	Option("missingkey=error").
	Funcs(template.FuncMap{
		"quote":     strconv.Quote,
		"params":    params,
		"keyed":     keyed,
		"names":     names,
		"selectors": selectors,
		"blanks":    blanks,
	}).
	ParseFS(embeddedTemplatesFS, "_templates/*"))

// params renders args as a parameter list.
func params(args []argument) string {
	s := make([]string, len(args))
	for i, arg := range args {
		s[i] = arg.Name + " " + arg.Param
	}
	return strings.Join(s, ", ")
}

// keyed renders the elements of a composite literal capturing args, read
// from prefix.
func keyed(args []argument, prefix string) string {
	s := make([]string, len(args))
	for i, arg := range args {
		s[i] = arg.Name + ": " + prefix + arg.Name
	}
	return strings.Join(s, ", ")
}

func names(args []argument) string {
	s := make([]string, len(args))
	for i, arg := range args {
		s[i] = arg.Name
	}
	return strings.Join(s, ", ")
}

func selectors(args []argument, prefix string) string {
	s := make([]string, len(args))
	for i, arg := range args {
		s[i] = prefix + arg.Name
	}
	return strings.Join(s, ", ")
}

func blanks(args []argument) string {
	return strings.TrimSuffix(strings.Repeat("_, ", len(args)), ", ")
}

type fileData struct {
	Constraint string
	Package    string
	Imports    []importSpec
	Decls      []declData
}

type importSpec struct {
	Name string // empty when the package name is implied
	Path string
}

type declData struct {
	De, Ser *plan
}
