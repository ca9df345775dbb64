// Package project holds the resolved project/file universe and the selection
// logic that filters it for a run. Project and solution file parsing happens
// outside the engine; this package only consumes the resolved result.
package project

// ProjectRef identifies one project and the ordered set of source files it
// owns. Read-only to the engine.
type ProjectRef struct {
	Name  string
	Files []FileUnit
}

// FileUnit is a single translation unit, owned by exactly one project.
type FileUnit struct {
	Path    string
	Project string
}

// Flatten returns all files of the given projects in universe order.
func Flatten(projects []ProjectRef) []FileUnit {
	var files []FileUnit
	for _, p := range projects {
		files = append(files, p.Files...)
	}
	return files
}
