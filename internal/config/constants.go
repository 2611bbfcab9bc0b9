// Package config holds Sif's build-time constants and its optional
// sif.yaml project file (module search paths, default arguments and
// environment).
package config

import "path/filepath"

// Version is the current Sif version. Set at build time via -ldflags, or
// left at this default for development builds.
var Version = "0.1.0"

const SourceFileExt = ".sif"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".sif"}

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if path ends with any recognized source
// extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// DefaultSearchPaths is consulted when no sif.yaml is present: the
// importing file's own directory (resolved by the caller, since it varies
// per file) plus the current working directory.
func DefaultSearchPaths() []string {
	return []string{"."}
}

// AbsSearchPaths resolves every configured search path relative to base
// (sif.yaml's own directory), so a relative `modules: [../shared]` entry
// means what it looks like regardless of the interpreter's cwd.
func AbsSearchPaths(base string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = p
			continue
		}
		out[i] = filepath.Join(base, p)
	}
	return out
}
