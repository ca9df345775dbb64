package project

import (
	"path/filepath"
	"strings"
)

// DefaultExtension is the filename filter applied when a run does not name one.
const DefaultExtension = ".cpp"

// Filter carries the include/ignore criteria for one run.
type Filter struct {
	ProjectInclude []string
	ProjectIgnore  []string
	FileInclude    []string
	FileIgnore     []string
	Extension      string // defaults to DefaultExtension when empty
	Literal        bool   // exact-string matching instead of pattern search
}

// Selector filters the project/file universe for a run. It is deterministic,
// order-preserving and has no side effects.
type Selector struct {
	projectInclude MatcherSet
	projectIgnore  MatcherSet
	fileInclude    MatcherSet
	fileIgnore     MatcherSet
	extension      string
}

// NewSelector compiles the filter's expressions once, under the filter's
// matching mode.
func NewSelector(f Filter) (*Selector, error) {
	ext := f.Extension
	if ext == "" {
		ext = DefaultExtension
	}

	s := &Selector{extension: ext}

	var err error
	if s.projectInclude, err = NewMatcherSet(f.ProjectInclude, f.Literal); err != nil {
		return nil, err
	}
	if s.projectIgnore, err = NewMatcherSet(f.ProjectIgnore, f.Literal); err != nil {
		return nil, err
	}
	if s.fileInclude, err = NewMatcherSet(f.FileInclude, f.Literal); err != nil {
		return nil, err
	}
	if s.fileIgnore, err = NewMatcherSet(f.FileIgnore, f.Literal); err != nil {
		return nil, err
	}
	return s, nil
}

// Select returns the projects that pass the two-phase include/ignore filter,
// each reduced to its matching files. Projects left with no files are dropped.
// Input order is preserved; the input universe is never mutated.
func (s *Selector) Select(universe []ProjectRef) []ProjectRef {
	var selected []ProjectRef
	for _, p := range universe {
		if !s.projectSelected(p.Name) {
			continue
		}

		var files []FileUnit
		for _, f := range p.Files {
			if s.fileSelected(f.Path) {
				files = append(files, f)
			}
		}
		if len(files) == 0 {
			continue
		}

		selected = append(selected, ProjectRef{Name: p.Name, Files: files})
	}
	return selected
}

// projectSelected applies phase one (empty include list admits everything)
// then phase two (any ignore match excludes).
func (s *Selector) projectSelected(name string) bool {
	if len(s.projectInclude) > 0 && !s.projectInclude.AnyMatch(name) {
		return false
	}
	return !s.projectIgnore.AnyMatch(name)
}

// fileSelected filters by extension first, then applies the same two-phase
// logic to the file's base name.
func (s *Selector) fileSelected(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), s.extension) {
		return false
	}
	name := filepath.Base(path)
	if len(s.fileInclude) > 0 && !s.fileInclude.AnyMatch(name) {
		return false
	}
	return !s.fileIgnore.AnyMatch(name)
}
