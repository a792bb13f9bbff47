// Command seededvet reports problems with //seeded: markers.
//
// It can be run directly, or through go vet:
//
//	go vet -vettool=$(which seededvet) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/stealthrocket/seeded/compiler"
)

func main() { singlechecker.Main(compiler.Analyzer) }
