package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStemAndReplaceExt(t *testing.T) {
	if got := Stem("prog/Main.vm"); got != "Main" {
		t.Errorf("Stem = %q, want Main", got)
	}
	if got := ReplaceExt("prog/Main.asm", ".hack"); got != "prog/Main.hack" {
		t.Errorf("ReplaceExt = %q", got)
	}
}

func TestFindSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Sys.vm", "Main.VM", "notes.txt", "Prog.asm"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.vm"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindSources(dir, ".vm")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "Main.VM"), filepath.Join(dir, "Sys.vm")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindSources = %v, want %v", got, want)
	}

	file := filepath.Join(dir, "Prog.asm")
	all, err := ExpandInputs([]string{file, dir}, ".vm")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0] != file {
		t.Errorf("ExpandInputs = %v", all)
	}

	if _, err := ExpandInputs([]string{t.TempDir()}, ".vm"); err == nil {
		t.Error("expected an error for a directory without sources")
	}
	if _, err := ExpandInputs([]string{filepath.Join(dir, "missing")}, ".vm"); err == nil {
		t.Error("expected an error for a missing path")
	}
}

func TestGetPathInfo(t *testing.T) {
	full, parent, err := GetPathInfo("a/b/../c.vm")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(full) != "c.vm" || filepath.Base(parent) != "a" {
		t.Errorf("GetPathInfo = %q, %q", full, parent)
	}
}
