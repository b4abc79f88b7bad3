package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[build]
entry = "Main.main"
stack_base = 300
parallel = false
format = "asm"
library = ["os", "/abs/lib"]

[run]
cycles = 500
screenshot = "out.png"

[log]
verbosity = 2
`
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Build.Entry != "Main.main" {
		t.Errorf("entry = %q, want Main.main", c.Build.Entry)
	}
	if !c.Build.Bootstrap {
		t.Error("bootstrap lost its default")
	}
	if c.Build.StackBase != 300 || c.Build.Parallel || c.Build.Format != "asm" {
		t.Errorf("build = %+v", c.Build)
	}
	if c.Build.Library[0] != filepath.Join(dir, "os") || c.Build.Library[1] != "/abs/lib" {
		t.Errorf("library = %v", c.Build.Library)
	}
	if c.Run.Cycles != 500 || c.Run.Screenshot != "out.png" {
		t.Errorf("run = %+v", c.Run)
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", c.Log.Verbosity)
	}

	opts := c.CompileOptions()
	if opts.Parallel || opts.Link.Entry != "Main.main" || opts.Link.Layout.StackBase != 300 {
		t.Errorf("CompileOptions = %+v", opts)
	}
	if opts.Link.Layout.TempBase != 5 {
		t.Error("CompileOptions dropped the default layout")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"syntax":    "[build\n",
		"format":    "[build]\nformat = \"elf\"\n",
		"cycles":    "[run]\ncycles = 0\n",
		"noEntry":   "[build]\nentry = \"\"\n",
		"wrongType": "[build]\nstack_base = \"high\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".toml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load(%q) succeeded", body)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil || !strings.Contains(err.Error(), "cannot read") {
		t.Errorf("missing file err = %v", err)
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatal(err)
	}
	if c.Path != "" || c.Build.Format != "hack" {
		t.Errorf("expected defaults, got %+v", c)
	}

	path := filepath.Join(root, "a", FileName)
	if err := os.WriteFile(path, []byte("[build]\nformat = \"vm\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err = FindAndLoad(nested)
	if err != nil {
		t.Fatal(err)
	}
	if c.Path != path || c.Build.Format != "vm" {
		t.Errorf("FindAndLoad = %+v", c)
	}
}
