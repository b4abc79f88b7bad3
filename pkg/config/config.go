// Package config handles hackc.toml build configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"hackc/pkg/compiler"
	"hackc/pkg/translator"
)

// FileName is the configuration file searched for by FindAndLoad.
const FileName = "hackc.toml"

// Config represents a hackc.toml file.
type Config struct {
	Build Build `toml:"build"`
	Run   Run   `toml:"run"`
	Log   Log   `toml:"log"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Build configures compilation and linking.
type Build struct {
	Entry     string `toml:"entry"`
	Bootstrap bool   `toml:"bootstrap"`
	StackBase uint16 `toml:"stack_base"`
	Parallel  bool   `toml:"parallel"`
	Format    string `toml:"format"`
	// Library lists .vm files or directories linked into every program.
	Library []string `toml:"library"`
}

// Run configures the emulator.
type Run struct {
	Cycles     int    `toml:"cycles"`
	Screenshot string `toml:"screenshot"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Build: Build{
			Entry:     translator.DefaultEntry,
			Bootstrap: true,
			StackBase: translator.DefaultLayout().StackBase,
			Parallel:  true,
			Format:    "hack",
		},
		Run: Run{
			Cycles: 1_000_000,
		},
	}
}

// Load parses a hackc.toml file. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	c.Path = path

	// Library entries are relative to the config file.
	dir := filepath.Dir(path)
	for i, lib := range c.Build.Library {
		if !filepath.IsAbs(lib) {
			c.Build.Library[i] = filepath.Join(dir, lib)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a hackc.toml file and loads
// it. Without a file it returns Default().
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks values the toolchain cannot work with.
func (c *Config) Validate() error {
	switch c.Build.Format {
	case "vm", "asm", "hack", "image":
	default:
		return fmt.Errorf("unknown format %q", c.Build.Format)
	}
	if c.Build.Bootstrap && c.Build.Entry == "" {
		return fmt.Errorf("bootstrap needs an entry function")
	}
	if c.Run.Cycles <= 0 {
		return fmt.Errorf("cycles must be positive, got %d", c.Run.Cycles)
	}
	return nil
}

// CompileOptions converts the build section to compiler options.
// Library files are not loaded here.
func (c *Config) CompileOptions() compiler.Options {
	opts := compiler.DefaultOptions()
	opts.Parallel = c.Build.Parallel
	opts.Link.Bootstrap = c.Build.Bootstrap
	opts.Link.Entry = c.Build.Entry
	opts.Link.Layout.StackBase = c.Build.StackBase
	return opts
}
