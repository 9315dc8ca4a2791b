// Package errors implements Eikobot's error taxonomy (spec §7). Every
// error carries a Kind and, where applicable, the source span of the
// token that triggered it, so the CLI can print a two-line source
// excerpt alongside the message.
package errors

import (
	"fmt"

	"github.com/kazaamjt/eikobot/internal/token"
)

// Kind enumerates the error taxonomy.
type Kind string

const (
	KindSyntax             Kind = "SyntaxError"
	KindParser             Kind = "ParserError"
	KindCompilation        Kind = "CompilationError"
	KindInternal           Kind = "InternalError"
	KindPlugin             Kind = "PluginError"
	KindExport             Kind = "ExportError"
	KindDeploy             Kind = "DeployError"
	KindUnresolvedPromise  Kind = "UnresolvedPromiseError"
)

// Error is the structured error type returned throughout the engine.
type Error struct {
	Kind     Kind
	Message  string
	Cause    error
	Position *token.Position
	Context  map[string]interface{}
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Position != nil {
		prefix = fmt.Sprintf("%s (%s)", prefix, e.Position)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithContext attaches a key/value pair of diagnostic context and
// returns the receiver for chaining.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func new_(kind Kind, pos *token.Position, message string) *Error {
	return &Error{Kind: kind, Message: message, Position: pos}
}

func wrap(kind Kind, pos *token.Position, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause, Position: pos}
}

// NewSyntaxError reports a lexer rejection: an illegal character, or a
// string literal that was not closed before end-of-line.
func NewSyntaxError(pos token.Position, message string) *Error {
	return new_(KindSyntax, &pos, message)
}

// NewParserError reports the parser encountering an unexpected token.
func NewParserError(tok token.Token, message string) *Error {
	return new_(KindParser, &tok.Position, message).WithContext("token", tok.Content)
}

// NewCompilationError reports a type mismatch, missing property,
// reassignment, unknown name, bad arity, or failed typedef condition.
func NewCompilationError(pos token.Position, message string) *Error {
	return new_(KindCompilation, &pos, message)
}

// NewInternalError reports an invariant violated inside the engine -
// always a bug, never a user mistake.
func NewInternalError(message string, cause error) *Error {
	return wrap(KindInternal, nil, message, cause)
}

// NewPluginError reports a host-language plugin raising, or returning a
// value of the wrong type.
func NewPluginError(name string, cause error) *Error {
	return wrap(KindPlugin, nil, fmt.Sprintf("plugin %q failed", name), cause).
		WithContext("plugin", name)
}

// NewExportError reports a dependency cycle or a resource that could
// not be materialized into a task.
func NewExportError(message string) *Error {
	return new_(KindExport, nil, message)
}

// NewDeployError reports a handler throwing an uncaught error, or
// setting Failed without further explanation.
func NewDeployError(resourceIndex string, cause error) *Error {
	e := wrap(KindDeploy, nil, fmt.Sprintf("deployment of %q failed", resourceIndex), cause)
	return e.WithContext("resource", resourceIndex)
}

// NewUnresolvedPromiseError reports a read of an unfulfilled promise
// after its owning task completed.
func NewUnresolvedPromiseError(resourceIndex, promiseName string) *Error {
	return new_(KindUnresolvedPromise, nil,
		fmt.Sprintf("promise %q on %q was never fulfilled", promiseName, resourceIndex)).
		WithContext("resource", resourceIndex).
		WithContext("promise", promiseName)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
