package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSourceExtHelpers(t *testing.T) {
	if !HasSourceExt("foo.sif") || HasSourceExt("foo.txt") || HasSourceExt("sif") {
		t.Fatal("HasSourceExt misclassifies")
	}
	if TrimSourceExt("foo.sif") != "foo" {
		t.Fatalf("TrimSourceExt = %q", TrimSourceExt("foo.sif"))
	}
	if TrimSourceExt("foo") != "foo" {
		t.Fatal("TrimSourceExt mangles extensionless names")
	}
}

func TestLoadProjectMissingFile(t *testing.T) {
	dir := t.TempDir()
	p, err := LoadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Modules) != 0 || len(p.Arguments) != 0 {
		t.Fatal("missing sif.yaml must decode to a zero project")
	}
	paths := p.SearchPaths()
	if len(paths) != 1 || paths[0] != dir {
		t.Fatalf("SearchPaths = %v", paths)
	}
}

func TestLoadProjectYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := "modules:\n  - mods\n  - /abs/lib\nenvironment:\n  SIF_MODE: test\narguments:\n  - alpha\n  - beta\n"
	if err := os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	if p.Environment["SIF_MODE"] != "test" {
		t.Fatalf("Environment = %v", p.Environment)
	}
	if len(p.Arguments) != 2 || p.Arguments[0] != "alpha" {
		t.Fatalf("Arguments = %v", p.Arguments)
	}

	paths := p.SearchPaths()
	if len(paths) != 3 {
		t.Fatalf("SearchPaths = %v", paths)
	}
	if paths[0] != dir {
		t.Fatalf("first search path must be the project dir, got %q", paths[0])
	}
	if paths[1] != filepath.Join(dir, "mods") {
		t.Fatalf("relative module path not anchored to the project dir: %q", paths[1])
	}
	if paths[2] != "/abs/lib" {
		t.Fatalf("absolute module path rewritten: %q", paths[2])
	}
}

func TestLoadProjectBadYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProject(dir); err == nil {
		t.Fatal("malformed sif.yaml must be an error")
	}
}
