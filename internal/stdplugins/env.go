// Package stdplugins implements the small set of built-in plugins that
// ship with the engine itself rather than with an installed package,
// grounded on the original compiler's eikobot/core/lib/std/env.py and
// std/regex.py: environment lookups and a regex matcher, bound into the
// root scope before compilation the same way the host plugin contract
// intends any plugin to be bound (spec §4.7, §6 scenarios 4-5).
package stdplugins

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/eval"
	"github.com/kazaamjt/eikobot/internal/evalctx"
	"github.com/kazaamjt/eikobot/internal/token"
	"github.com/kazaamjt/eikobot/internal/types"
	"github.com/kazaamjt/eikobot/internal/value"
)

func strParam(name string) ast.Param {
	return ast.Param{Name: name, TypeExpr: ast.NewIdentifier(token.Token{}, "str")}
}

func pathParam(name string) ast.Param {
	return ast.Param{Name: name, TypeExpr: ast.NewIdentifier(token.Token{}, "Path")}
}

// RegisterEnv binds std.env's get, get_secret and secrets_file plugins
// into scope (spec §6 scenario 4 "reads a secret from the environment").
func RegisterEnv(scope *evalctx.Scope) error {
	get := &eval.Plugin{
		Name:   "get",
		Params: []ast.Param{strParam("name")},
		Return: types.Str,
		Fn: func(args []value.Value) (value.Value, error) {
			name := args[0].(value.Str).V
			v, ok := os.LookupEnv(name)
			if !ok {
				return nil, fmt.Errorf("environment variable %s needs to be set", name)
			}
			return value.Str{V: v}, nil
		},
	}

	getSecret := &eval.Plugin{
		Name:   "get_secret",
		Params: []ast.Param{strParam("name")},
		Return: types.ProtectedStr,
		Fn: func(args []value.Value) (value.Value, error) {
			name := args[0].(value.Str).V
			v, ok := os.LookupEnv(name)
			if !ok {
				return nil, fmt.Errorf("environment variable %s needs to be set", name)
			}
			return value.Str{V: v, Protected: true}, nil
		},
	}

	secretsFile := &eval.Plugin{
		Name:   "secrets_file",
		Params: []ast.Param{pathParam("path")},
		Return: types.NewDict(types.Str, types.ProtectedStr),
		Fn:     secretsFileFn,
	}

	for _, p := range []*eval.Plugin{get, getSecret, secretsFile} {
		if err := scope.Set(p.Name, p, token.Position{}); err != nil {
			return err
		}
	}
	return nil
}

func secretsFileFn(args []value.Value) (value.Value, error) {
	path := args[0].(value.Path).V
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets_file %q: %w", path, err)
	}
	defer f.Close()

	entries := []value.DictEntry{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("failed to read secrets_file %q: malformed line %q", path, line)
		}
		name := strings.ReplaceAll(parts[0], " ", "")
		entries = append(entries, value.DictEntry{
			Key: value.Str{V: name},
			Val: value.Str{V: parts[1], Protected: true},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read secrets_file %q: %w", path, err)
	}

	return &value.Dict{KeyType: types.Str, ValType: types.ProtectedStr, Entries: entries}, nil
}
