package goink

import (
	"errors"
	"fmt"
	"strings"
)

// --- Error kinds -----------------------------------------------------------

// ErrorKind is a category for errors occuring while loading or running a story.
type ErrorKind int

// Error kinds of the runtime. Kinds are not exclusive to a severity: a
// PathResolutionFailure may be reported as a warning if content could be
// approximated.
const (
	NoError               ErrorKind = iota
	MalformedDocument               // bad or unsupported version, missing root, unreadable token
	PathResolutionFailure           // content at path not found (approximated or hard)
	UnboundExternal                 // external function neither bound nor backed by a fallback
	StackDiscipline                 // mismatched push/pop, popping an anchored thread
	TypeCoercion                    // operands of incompatible types, arity mismatch
	RuntimeLogic                    // content exhausted without an explicit end, and similar
)

var kindNames = [...]string{
	"NoError",
	"MalformedDocument",
	"PathResolutionFailure",
	"UnboundExternal",
	"StackDiscipline",
	"TypeCoercion",
	"RuntimeLogic",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

// --- Errors ----------------------------------------------------------------

// Error is a structured story error. Errors are values: the interpreter never
// panics on story inconsistencies, but records an Error and stops the current
// continuation (or, for warnings, goes on).
type Error struct {
	Kind    ErrorKind
	Msg     string
	Warning bool   // warnings do not stop evaluation
	Path    string // location in the story, if known
}

// Errorf creates a new error of a given kind.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Warningf creates a new warning of a given kind.
func Warningf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Warning: true}
}

// At returns a copy of e located at a story path.
func (e *Error) At(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

func (e *Error) Error() string {
	severity := "ERROR"
	if e.Warning {
		severity = "WARNING"
	}
	if e.Path != "" {
		return fmt.Sprintf("RUNTIME %s: '%s': %s", severity, e.Path, e.Msg)
	}
	return fmt.Sprintf("RUNTIME %s: %s", severity, e.Msg)
}

// Is reports errors of the same kind and severity as equal, so that
// errors.Is(err, &goink.Error{Kind: goink.TypeCoercion}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// KindOf extracts the error kind from an error chain. Returns NoError if err
// does not wrap a story error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return NoError
}

// --- Aggregate -------------------------------------------------------------

// Issues collects the errors and warnings of a continuation. It is returned
// as a single error whenever a story has no error handler installed.
type Issues struct {
	Errors   []*Error
	Warnings []*Error
}

// Empty is a predicate: no errors and no warnings?
func (is *Issues) Empty() bool {
	return is == nil || (len(is.Errors) == 0 && len(is.Warnings) == 0)
}

// HasErrors is a predicate: at least one error (not counting warnings)?
func (is *Issues) HasErrors() bool {
	return is != nil && len(is.Errors) > 0
}

// First returns the first error, or the first warning if there are no errors.
func (is *Issues) First() *Error {
	if is == nil {
		return nil
	}
	if len(is.Errors) > 0 {
		return is.Errors[0]
	}
	if len(is.Warnings) > 0 {
		return is.Warnings[0]
	}
	return nil
}

func (is *Issues) Error() string {
	var b strings.Builder
	b.WriteString("story had ")
	if len(is.Errors) > 0 {
		b.WriteString(plural(len(is.Errors), "error"))
		if len(is.Warnings) > 0 {
			b.WriteString(" and ")
		}
	}
	if len(is.Warnings) > 0 {
		b.WriteString(plural(len(is.Warnings), "warning"))
	}
	if first := is.First(); first != nil {
		b.WriteString("; first issue: ")
		b.WriteString(first.Error())
	}
	return b.String()
}

// Unwrap returns the first issue.
func (is *Issues) Unwrap() error {
	if first := is.First(); first != nil {
		return first
	}
	return nil
}

func plural(n int, s string) string {
	if n == 1 {
		return "1 " + s
	}
	return fmt.Sprintf("%d %ss", n, s)
}
