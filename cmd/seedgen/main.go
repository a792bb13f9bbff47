package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stealthrocket/seeded/compiler"
)

var rootCmd = &cobra.Command{
	Use:   "seedgen [flags] [path]",
	Short: "Generate seeded serialization code for Go types",
	Long: `seedgen generates seeded serialization code for the Go struct types marked
with //seeded:derive. The code generated for foo.go is written to seeded_foo.go.

The path is a package directory, a file, or a pattern such as ./... When run
by go generate, the default is the package of the file holding the directive.

Settings are read from the nearest seedgen.toml, and flags override them.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var (
	errorColor = color.New(color.FgRed, color.Bold)
	noteColor  = color.New(color.FgCyan, color.Bold)
)

func main() {
	rootCmd.Version = version()

	flags := rootCmd.Flags()
	flags.String("output-prefix", "seeded_", "prefix of generated file names")
	flags.String("tags", "", "build constraint added to generated files")
	flags.String("runtime", compiler.DefaultRuntimePackage, "import path of the runtime package")
	flags.String("receiver", "this", "name binding the serialized value in generated code")
	flags.StringSlice("type", nil, "generate code for the named types as if they were marked with //seeded:derive")
	flags.String("config", "", "path to seedgen.toml (default: search from the target directory upwards)")
	flags.Int("jobs", 0, "number of packages generated concurrently (default: GOMAXPROCS)")
	flags.String("color", "auto", "colorize diagnostics (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return err
	}
	switch colorFlag {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !term.IsTerminal(int(os.Stderr.Fd()))
	default:
		return fmt.Errorf("invalid --color value %q (expected auto, on or off)", colorFlag)
	}

	var path string
	if len(args) > 0 {
		path = args[0]
	} else if gofile := os.Getenv("GOFILE"); gofile != "" {
		// Set by go generate, which also runs the command in the
		// directory of the file.
		path = gofile
	} else {
		path = "."
	}

	options, err := loadConfig(flags.Lookup("config").Value.String(), path)
	if err != nil {
		return err
	}
	if flags.Changed("output-prefix") {
		prefix, _ := flags.GetString("output-prefix")
		options = append(options, compiler.WithOutputPrefix(prefix))
	}
	if flags.Changed("tags") {
		tags, _ := flags.GetString("tags")
		options = append(options, compiler.WithBuildTags(tags))
	}
	if flags.Changed("runtime") {
		runtime, _ := flags.GetString("runtime")
		options = append(options, compiler.WithRuntimePackage(runtime))
	}
	if flags.Changed("receiver") {
		receiver, _ := flags.GetString("receiver")
		options = append(options, compiler.WithReceiverName(receiver))
	}
	if flags.Changed("type") {
		types, _ := flags.GetStringSlice("type")
		options = append(options, compiler.WithTypes(types...))
	}
	if flags.Changed("jobs") {
		jobs, _ := flags.GetInt("jobs")
		options = append(options, compiler.WithConcurrency(jobs))
	}

	return compiler.Compile(path, options...)
}

// loadConfig returns the options of the configuration file at path, or of
// the nearest one above target when path is empty.
func loadConfig(path, target string) ([]compiler.Option, error) {
	if path == "" {
		dir, _ := filepath.Abs(target)
		dir = filepath.Clean(dir)
		if filepath.Base(dir) == "..." {
			dir = filepath.Dir(dir)
		}
		found, ok, err := compiler.FindConfig(dir)
		if err != nil || !ok {
			return nil, err
		}
		path = found
	}
	config, err := compiler.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return config.Options(), nil
}

func report(w io.Writer, err error) {
	var diags *compiler.DiagnosticsError
	if !errors.As(err, &diags) {
		fmt.Fprintf(w, "%s %v\n", errorColor.Sprint("error:"), err)
		return
	}
	for _, d := range diags.List {
		fmt.Fprintf(w, "%s: %s %s\n", diags.Fset.Position(d.Pos), errorColor.Sprint("error:"), d.Message)
		for _, r := range d.Related {
			fmt.Fprintf(w, "\t%s: %s %s\n", diags.Fset.Position(r.Pos), noteColor.Sprint("note:"), r.Message)
		}
	}
	n := len(diags.List)
	plural := "s"
	if n == 1 {
		plural = ""
	}
	fmt.Fprintf(w, "%d diagnostic%s\n", n, plural)
}

func version() (version string) {
	version = "devel"
	if info, ok := debug.ReadBuildInfo(); ok {
		switch info.Main.Version {
		case "":
		case "(devel)":
		default:
			version = info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				version += " " + setting.Value
			}
		}
	}
	return
}
