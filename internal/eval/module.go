package eval

import (
	"fmt"
	"strings"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/evalctx"
)

// ModuleLoader parses a source file into an *ast.Module. Supplied by the
// caller (the compile/deploy command), so module files are read and
// parsed outside eval; eval itself calls the parser only to re-parse
// f-string interpolations.
type ModuleLoader interface {
	Load(path string) (*ast.Module, error)
}

func (e *Evaluator) evalImport(scope *evalctx.Scope, node *ast.Import) error {
	modScope, err := e.resolveModule(node.Path, node)
	if err != nil {
		return err
	}
	name := node.Alias
	if name == "" {
		name = node.Path[len(node.Path)-1]
	}
	return scope.Set(name, modScope, node.Token().Position)
}

func (e *Evaluator) evalFromImport(scope *evalctx.Scope, node *ast.FromImport) error {
	modScope, err := e.resolveModule(node.Path, node)
	if err != nil {
		return err
	}
	for _, name := range node.Names {
		b, ok := modScope.Get(name)
		if !ok {
			return modScope.UnknownNameError(name, node.Token().Position)
		}
		if err := scope.Set(name, b, node.Token().Position); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) resolveModule(path []string, tok ast.Node) (*evalctx.Scope, error) {
	if e.Resolver == nil || e.FS == nil {
		return nil, errors.NewCompilationError(tok.Token().Position, fmt.Sprintf(
			"cannot import %q: no module search path configured", strings.Join(path, ".")))
	}
	mf, ok := e.Resolver.Resolve(path, e.FS)
	if !ok {
		return nil, errors.NewCompilationError(tok.Token().Position, fmt.Sprintf(
			"module %q not found on the search path", strings.Join(path, ".")))
	}

	if mf.Path == "" {
		// Already compiled and cached by a previous import of the same
		// dotted path - importlib.py's get_or_set_context semantics.
		return mf.Scope, nil
	}
	if e.Loader == nil {
		return nil, errors.NewInternalError("module resolved but no loader configured", nil)
	}
	modAst, err := e.Loader.Load(mf.Path)
	if err != nil {
		return nil, err
	}
	if err := e.EvalModule(mf.Scope, modAst); err != nil {
		return nil, err
	}
	return mf.Scope, nil
}
