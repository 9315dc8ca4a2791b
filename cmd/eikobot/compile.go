package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/eval"
	"github.com/kazaamjt/eikobot/internal/evalctx"
	"github.com/kazaamjt/eikobot/internal/export"
	"github.com/kazaamjt/eikobot/internal/handler"
	"github.com/kazaamjt/eikobot/internal/project"
	"github.com/kazaamjt/eikobot/internal/stdplugins"
	"github.com/kazaamjt/eikobot/internal/value"
	"github.com/spf13/cobra"
)

// compileResult is what a compile run hands on: every constructed
// instance for printing the object graph, the exported task graph, and
// the project settings it was compiled under.
type compileResult struct {
	instances []*value.Instance
	tasks     []*export.Task
	settings  project.Settings
}

// compileModule runs the full lexer -> parser -> evaluator -> exporter
// pipeline over entryPoint (spec §4 "module A compiles by lexing,
// parsing and evaluating its source, then every constructed resource is
// exported into a task graph").
func compileModule(entryPoint string) (*compileResult, error) {
	settings, err := project.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read eiko.toml: %w", err)
	}
	if entryPoint == "" {
		entryPoint = settings.EntryPoint
	}
	if entryPoint == "" {
		entryPoint = "main.eiko"
	}

	libRoot := filepath.Join(filepath.Dir(entryPoint), "libs")
	resolver := evalctx.NewResolver([]string{libRoot})
	fs := osFileSystem{}
	evaluator := eval.New(resolver, fs, fileLoader{})

	rootScope := evalctx.NewRoot("__main__")
	if err := stdplugins.RegisterEnv(rootScope); err != nil {
		return nil, fmt.Errorf("failed to register std.env plugins: %w", err)
	}
	if err := stdplugins.RegisterRegex(rootScope); err != nil {
		return nil, fmt.Errorf("failed to register std.regex plugins: %w", err)
	}

	mod, err := fileLoader{}.Load(entryPoint)
	if err != nil {
		return nil, err
	}
	if err := evaluator.EvalModule(rootScope, mod); err != nil {
		return nil, err
	}

	handlers := handler.NewRegistry()
	exporter := export.New(handlers)
	tasks, err := exporter.Export(evaluator.Resources.Order)
	if err != nil {
		return nil, err
	}
	return &compileResult{instances: evaluator.Resources.Order, tasks: tasks, settings: settings}, nil
}

// printObjectGraph prints every constructed resource instance as
// indented JSON (spec §6 "compile ... prints the resulting object
// graph"), keyed by its stable index column so the output also doubles
// as a dependency-free sanity check of the dedup pass.
func printObjectGraph(instances []*value.Instance) error {
	graph := make(map[string]interface{}, len(instances))
	for _, inst := range instances {
		key := inst.Index
		if key == "" {
			key = inst.TypeName
		}
		graph[key] = inst.Printable()
	}
	out, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render object graph: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Compile an Eikobot model without deploying it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryPoint := ""
			if len(args) == 1 {
				entryPoint = args[0]
			}
			result, err := compileModule(entryPoint)
			if err != nil {
				return err
			}
			slog.Info("compiled successfully", "tasks", len(result.tasks))
			return printObjectGraph(result.instances)
		},
	}
	return cmd
}

// printSourceExcerpt prints the offending line plus a caret pointing at
// the error column, matching the compiler's two-line diagnostic style
// (spec §7).
func printSourceExcerpt(e *errors.Error) {
	if e.Position == nil || e.Position.File == "" {
		return
	}
	data, err := os.ReadFile(e.Position.File)
	if err != nil {
		return
	}
	lines := splitLines(string(data))
	if e.Position.Line < 1 || e.Position.Line > len(lines) {
		return
	}
	line := lines[e.Position.Line-1]
	fmt.Fprintf(os.Stderr, "%s\n", line)
	col := e.Position.Column
	if col < 1 {
		col = 1
	}
	fmt.Fprintf(os.Stderr, "%s^\n", spaces(col-1))
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
