package main

import (
	"os"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/parser"
)

// fileLoader implements eval.ModuleLoader by reading a module file from
// disk and running it through the lexer/parser pipeline.
type fileLoader struct{}

func (fileLoader) Load(path string) (*ast.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parser.Parse(path, string(src))
}

// osFileSystem implements evalctx.FileSystem against the real disk.
type osFileSystem struct{}

func (osFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFileSystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
