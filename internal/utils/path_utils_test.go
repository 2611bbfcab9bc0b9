package utils

import "testing"

func TestResolveImportPath(t *testing.T) {
	if got := ResolveImportPath("proj/lib", "./helper"); got != "proj/lib/helper" {
		t.Fatalf("relative import = %q", got)
	}
	if got := ResolveImportPath(".", "./helper"); got != "./helper" {
		t.Fatalf("cwd-relative import = %q", got)
	}
	if got := ResolveImportPath("proj/lib", "mathlib"); got != "mathlib" {
		t.Fatalf("bare import = %q", got)
	}
}

func TestExtractModuleName(t *testing.T) {
	if got := ExtractModuleName("proj/lib/helper.sif"); got != "helper" {
		t.Fatalf("ExtractModuleName = %q", got)
	}
	if got := ExtractModuleName("helper"); got != "helper" {
		t.Fatalf("ExtractModuleName = %q", got)
	}
}

func TestGetModuleDir(t *testing.T) {
	if got := GetModuleDir("proj/lib/helper.sif"); got != "proj/lib" {
		t.Fatalf("GetModuleDir = %q", got)
	}
	if got := GetModuleDir("proj/lib"); got != "proj/lib" {
		t.Fatalf("GetModuleDir = %q", got)
	}
}
