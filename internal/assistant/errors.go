package assistant

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies why a query failed.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrConnection
	ErrArgumentParse
	ErrUnknownTool
	ErrToolExecution
	ErrModelCall
)

func (k ErrorKind) String() string {
	switch k {
	case ErrConnection:
		return "connection"
	case ErrArgumentParse:
		return "argument_parse"
	case ErrUnknownTool:
		return "unknown_tool"
	case ErrToolExecution:
		return "tool_execution"
	case ErrModelCall:
		return "model_call"
	default:
		return "unknown"
	}
}

// Error is the single failure value a query produces. Detail is the
// human-readable text; Kind is what callers branch on.
type Error struct {
	Kind   ErrorKind
	Tool   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Detail
	}
	return fmt.Sprintf("%s: %v", e.Detail, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrUnknown
}

func NewConnectionError(detail string, err error) *Error {
	return &Error{Kind: ErrConnection, Detail: detail, Err: err}
}

func newArgumentParseError(tool, raw string, err error) *Error {
	return &Error{
		Kind:   ErrArgumentParse,
		Tool:   tool,
		Detail: fmt.Sprintf("Invalid JSON in tool arguments: %s", raw),
		Err:    errors.Wrap(err, "parsing failed"),
	}
}

func newUnknownToolError(tool string) *Error {
	return &Error{
		Kind:   ErrUnknownTool,
		Tool:   tool,
		Detail: fmt.Sprintf("Unknown tool name: %s", tool),
	}
}

func newToolExecutionError(tool string, err error) *Error {
	return &Error{
		Kind:   ErrToolExecution,
		Tool:   tool,
		Detail: fmt.Sprintf("executing tool %s", tool),
		Err:    err,
	}
}

func newModelCallError(err error) *Error {
	return &Error{Kind: ErrModelCall, Detail: "model call failed", Err: err}
}
