package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the name of the optional per-project config file,
// looked up in the entry script's directory only; parent directories are
// not searched.
const ProjectFileName = "sif.yaml"

// Project is the decoded shape of sif.yaml: module search paths beyond the
// importing file's own directory, and default arguments/environment passed
// to `the arguments`/`the environment` when the CLI doesn't override them.
type Project struct {
	Modules     []string          `yaml:"modules"`
	Environment map[string]string `yaml:"environment"`
	Arguments   []string          `yaml:"arguments"`

	dir string
}

// LoadProject reads dir/sif.yaml if present. A missing file is not an error:
// it returns a zero-value Project rooted at dir, so callers can treat
// "no project file" and "empty project file" identically.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, ProjectFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Project{dir: dir}, nil
	}
	if err != nil {
		return nil, err
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.dir = dir
	return &p, nil
}

// SearchPaths returns dir itself followed by the project's configured module
// search paths, each relative entry joined onto dir (so the results are
// absolute only when dir is).
func (p *Project) SearchPaths() []string {
	paths := append([]string{p.dir}, AbsSearchPaths(p.dir, p.Modules)...)
	return paths
}
