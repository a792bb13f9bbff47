package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFile is the name of the project configuration file.
const ConfigFile = "seedgen.toml"

// Config is the content of a seedgen.toml file:
//
//	runtime = "github.com/stealthrocket/seeded"
//	receiver = "this"
//	prefix = "seeded_"
//	tags = "!purego"
//	types = ["Point"]
//	jobs = 4
type Config struct {
	Runtime  string   `toml:"runtime"`
	Receiver string   `toml:"receiver"`
	Prefix   string   `toml:"prefix"`
	Tags     string   `toml:"tags"`
	Types    []string `toml:"types"`
	Jobs     int      `toml:"jobs"`
}

// FindConfig looks for seedgen.toml in startDir and its parents.
func FindConfig(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if s, err := os.Stat(dir); err == nil && !s.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadConfig decodes a seedgen.toml file. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	var config Config
	meta, err := toml.DecodeFile(path, &config)
	if err != nil {
		return config, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return config, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if config.Jobs < 0 {
		return config, fmt.Errorf("%s: jobs must not be negative", path)
	}
	return config, nil
}

// Options returns the compiler options set by the configuration.
func (config Config) Options() []Option {
	var options []Option
	if config.Runtime != "" {
		options = append(options, WithRuntimePackage(config.Runtime))
	}
	if config.Receiver != "" {
		options = append(options, WithReceiverName(config.Receiver))
	}
	if config.Prefix != "" {
		options = append(options, WithOutputPrefix(config.Prefix))
	}
	if config.Tags != "" {
		options = append(options, WithBuildTags(config.Tags))
	}
	if len(config.Types) > 0 {
		options = append(options, WithTypes(config.Types...))
	}
	if config.Jobs > 0 {
		options = append(options, WithConcurrency(config.Jobs))
	}
	return options
}
