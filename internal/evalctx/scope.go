// Package evalctx implements Eikobot's evaluation context: a tree of
// lexically scoped name bindings with module-level parents (spec §3,
// §4.3), plus import resolution across a configurable library search
// path (spec §4.3, §6).
package evalctx

import (
	"sort"

	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/token"
	"github.com/kazaamjt/eikobot/internal/types"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Binding is anything a scope can store: a value.Value, an evaluator
// definition (resource type, constructor, typedef, plugin), or a nested
// *Scope (an imported module); type descriptors live in the scope's
// Types registry instead. Kept as interface{} here to
// avoid an import cycle with the value package, which itself never
// needs to look inside a Scope.
type Binding = interface{}

// Scope is one node of the lexical scope tree: a module, a resource
// body, a constructor, a for-loop body, an if-arm, or a typedef
// condition, each of which pushes a child scope over its enclosing
// block (spec §3 "Evaluation context").
type Scope struct {
	Name    string
	parent  *Scope
	storage map[string]Binding
	Types   *types.Registry
}

// NewRoot creates the root scope, seeded with the built-in type
// registry. The root has no parent (spec §4.3: "the root seeds int
// float bool str Path None and stdlib imports").
func NewRoot(name string) *Scope {
	return &Scope{
		Name:    name,
		storage: make(map[string]Binding),
		Types:   types.NewRegistry(),
	}
}

// Child pushes a new scope for the duration of an enclosing block,
// sharing the parent's type registry (types are not re-scoped: a type
// defined anywhere visible stays visible to children).
func (s *Scope) Child(name string) *Scope {
	return &Scope{
		Name:    name,
		parent:  s,
		storage: make(map[string]Binding),
		Types:   s.Types,
	}
}

// Get walks upward through the scope chain looking for name (spec §3:
// "get(name) walks upward").
func (s *Scope) Get(name string) (Binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.storage[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds name in this scope. Names are single-assignment within a
// scope chain: Set refuses to shadow an already-visible binding (spec
// §3). Returns an error if name is already visible from here.
func (s *Scope) Set(name string, v Binding, pos token.Position) error {
	if _, exists := s.Get(name); exists {
		return errors.NewCompilationError(pos, "illegal operation: tried to reassign "+name)
	}
	s.storage[name] = v
	return nil
}

// SetLocal forcibly binds name in this scope without the reassignment
// check, used only for synthesizing the implicit `self` binding inside
// a constructor/typedef-condition scope.
func (s *Scope) SetLocal(name string, v Binding) {
	s.storage[name] = v
}

// Names collects every name visible from this scope, used to build
// "unknown name, did you mean ..." suggestions.
func (s *Scope) Names() []string {
	seen := make(map[string]bool)
	for cur := s; cur != nil; cur = cur.parent {
		for k := range cur.storage {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SuggestFor returns the closest visible names to an unresolved
// identifier, using fuzzy subsequence matching - the same fuzzy-match
// technique the retrieved corpus uses for CLI/parser "did you mean"
// hints.
func (s *Scope) SuggestFor(name string, max int) []string {
	candidates := s.Names()
	ranked := fuzzy.RankFindFold(name, candidates)
	sort.Sort(ranked)
	out := make([]string, 0, max)
	for i, r := range ranked {
		if i >= max {
			break
		}
		out = append(out, r.Target)
	}
	return out
}

// UnknownNameError builds a CompilationError for a failed lookup,
// including fuzzy suggestions when available.
func (s *Scope) UnknownNameError(name string, pos token.Position) error {
	msg := "unknown name " + name
	if suggestions := s.SuggestFor(name, 3); len(suggestions) > 0 {
		msg += ", did you mean: "
		for i, sug := range suggestions {
			if i > 0 {
				msg += ", "
			}
			msg += sug
		}
		msg += "?"
	}
	return errors.NewCompilationError(pos, msg)
}
