package compiler

import "runtime"

// DefaultRuntimePackage is the import path of the package generated code
// depends on.
const DefaultRuntimePackage = "github.com/stealthrocket/seeded"

// Option configures the compiler.
type Option func(*compiler)

func newCompiler(options ...Option) *compiler {
	c := &compiler{
		outputPrefix:   "seeded_",
		runtimePackage: DefaultRuntimePackage,
		receiver:       "this",
		concurrency:    runtime.GOMAXPROCS(0),
		types:          map[string]bool{},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// WithOutputPrefix sets the prefix of generated file names. The code
// generated for foo.go is written to <prefix>foo.go.
func WithOutputPrefix(prefix string) Option {
	return func(c *compiler) { c.outputPrefix = prefix }
}

// WithBuildTags instructs the compiler to attach the specified build
// tags to generated files, in addition to the constraint of their source.
func WithBuildTags(buildTags string) Option {
	return func(c *compiler) { c.buildTags = buildTags }
}

// WithRuntimePackage sets the import path of the runtime package.
func WithRuntimePackage(path string) Option {
	return func(c *compiler) { c.runtimePackage = path }
}

// WithReceiverName sets the name binding the serialized value in the code
// generated for encoding.
func WithReceiverName(name string) Option {
	return func(c *compiler) { c.receiver = name }
}

// WithTypes generates code for the named types as if they carried a
// //seeded:derive marker.
func WithTypes(names ...string) Option {
	return func(c *compiler) {
		for _, name := range names {
			c.types[name] = true
		}
	}
}

// WithConcurrency limits the number of packages generated concurrently.
func WithConcurrency(n int) Option {
	return func(c *compiler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}
