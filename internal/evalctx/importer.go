package evalctx

import (
	"path/filepath"
	"strings"
)

// ModuleFile is a resolved import target: the file to compile plus the
// (possibly freshly created, possibly reused) scope it should be
// evaluated into.
type ModuleFile struct {
	Path  string
	Scope *Scope
}

// Resolver resolves dotted import paths against a library search path
// (spec §4.3, §6: "a fixed internal library directory plus every
// installed package's source directory") and caches modules by their
// resolved scope so repeated imports of the same dotted path - from any
// importing module - share one module scope.
//
// This adopts importlib.py's get_or_set_context semantics rather than
// importer.py's always-fresh-context semantics - see DESIGN.md for the
// resolved Open Question.
type Resolver struct {
	SearchPath []string
	cache      map[string]*Scope
}

// NewResolver creates a Resolver over the given search path, library
// directory first.
func NewResolver(searchPath []string) *Resolver {
	return &Resolver{SearchPath: searchPath, cache: make(map[string]*Scope)}
}

// Resolve finds the file backing a dotted import path such as
// ["std", "env"], preferring a package directory's __init__.eiko over a
// same-named file (spec §4.3: "a dotted path a.b.c prefers
// a/b/c/__init__.eiko, then a/b/c.eiko").
func (r *Resolver) Resolve(importPath []string, fs FileSystem) (*ModuleFile, bool) {
	dotted := strings.Join(importPath, ".")
	if scope, ok := r.cache[dotted]; ok {
		return &ModuleFile{Scope: scope}, true
	}

	for _, root := range r.SearchPath {
		if mf, ok := r.resolveUnder(root, importPath, fs); ok {
			r.cache[dotted] = mf.Scope
			return mf, true
		}
	}
	return nil, false
}

func (r *Resolver) resolveUnder(root string, importPath []string, fs FileSystem) (*ModuleFile, bool) {
	dir := root
	for _, part := range importPath {
		dir = filepath.Join(dir, part)
	}

	if fs.IsDir(dir) {
		initFile := filepath.Join(dir, "__init__.eiko")
		if fs.Exists(initFile) {
			return &ModuleFile{Path: initFile, Scope: NewRoot(strings.Join(importPath, "."))}, true
		}
	}

	file := dir + ".eiko"
	if fs.Exists(file) {
		return &ModuleFile{Path: file, Scope: NewRoot(strings.Join(importPath, "."))}, true
	}
	return nil, false
}

// FileSystem abstracts the filesystem checks the resolver needs, so
// tests can substitute an in-memory fake.
type FileSystem interface {
	Exists(path string) bool
	IsDir(path string) bool
}
