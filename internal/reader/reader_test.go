package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStringReaderLines(t *testing.T) {
	r := NewStringReader("test.sif", "one\ntwo\nthree")
	if r.Name() != "test.sif" {
		t.Fatalf("Name = %q", r.Name())
	}
	if string(r.Bytes()) != "one\ntwo\nthree" {
		t.Fatal("Bytes mismatch")
	}
	for i, want := range []string{"one", "two", "three"} {
		got, ok := r.Line(i + 1)
		if !ok || got != want {
			t.Fatalf("Line(%d) = %q, %v", i+1, got, ok)
		}
	}
	if _, ok := r.Line(0); ok {
		t.Fatal("Line(0) must not exist")
	}
	if _, ok := r.Line(4); ok {
		t.Fatal("Line past the end must not exist")
	}
}

func TestFileReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.sif")
	if err := os.WriteFile(path, []byte("print 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := NewFileReader(path)
	if err != nil {
		t.Fatal(err)
	}
	if r.Name() != path {
		t.Fatalf("Name = %q", r.Name())
	}
	if line, ok := r.Line(1); !ok || line != "print 1" {
		t.Fatalf("Line(1) = %q, %v", line, ok)
	}

	if _, err := NewFileReader(filepath.Join(t.TempDir(), "missing.sif")); err == nil {
		t.Fatal("missing file must error")
	}
}

func TestStdinReader(t *testing.T) {
	r, err := StdinReader("<stdin>", strings.NewReader("set x to 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if string(r.Bytes()) != "set x to 1\n" {
		t.Fatalf("Bytes = %q", r.Bytes())
	}
}
