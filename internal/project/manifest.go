package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk description of the project universe. It stands in
// for real project/solution parsing, which lives outside the engine.
type Manifest struct {
	Projects []ManifestProject `yaml:"projects"`
}

// ManifestProject names one project and the glob patterns resolving its files.
type ManifestProject struct {
	Name  string   `yaml:"name"`
	Files []string `yaml:"files"`
}

// LoadManifest reads a YAML manifest and resolves its globs into a project
// universe. Globs are resolved relative to the manifest's directory; match
// order within a pattern is the filesystem's sorted glob order.
func LoadManifest(path string) ([]ProjectRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	universe := make([]ProjectRef, 0, len(m.Projects))
	for _, mp := range m.Projects {
		if mp.Name == "" {
			return nil, fmt.Errorf("manifest %s: project with empty name", path)
		}

		ref := ProjectRef{Name: mp.Name}
		for _, pattern := range mp.Files {
			matches, err := filepath.Glob(filepath.Join(base, pattern))
			if err != nil {
				return nil, fmt.Errorf("manifest %s: bad glob %q: %w", path, pattern, err)
			}
			for _, match := range matches {
				ref.Files = append(ref.Files, FileUnit{Path: match, Project: mp.Name})
			}
		}
		universe = append(universe, ref)
	}
	return universe, nil
}
