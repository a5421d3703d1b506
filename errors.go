package jbuild

import (
	"errors"
	"fmt"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// CodeUnresolvedCall means a dynamic invocation matched no row of the
	// Call resolution table.
	CodeUnresolvedCall = "unresolved_call"
	// CodeModeConflict means a mapping operation hit a list-mode container or
	// the other way around.
	CodeModeConflict = "mode_conflict"
	// CodeMissingProperty means Extract could not read a named property off
	// the source value.
	CodeMissingProperty = "missing_property"
	// CodeEncodeFailure means the value tree could not be rendered as JSON.
	CodeEncodeFailure = "encode_failure"
	// CodeParseError means a buffer used to prime a builder was not a JSON or
	// YAML container.
	CodeParseError = "parse_error"
)

// Issue is a single build error. Field names the key or property involved when
// one applies.
type Issue struct {
	Field   string
	Code    string
	Message string
	Cause   error
}

func (it Issue) Error() string {
	if it.Field != "" {
		return fmt.Sprintf("jbuild: %s at %q: %s", it.Code, it.Field, it.Message)
	}
	return fmt.Sprintf("jbuild: %s: %s", it.Code, it.Message)
}

func (it Issue) Unwrap() error { return it.Cause }

// AsIssue extracts an Issue from err when one is present.
func AsIssue(err error) (Issue, bool) {
	var it Issue
	ok := errors.As(err, &it)
	return it, ok
}

func unresolvedCall(name string, argc int, hasBlock bool) Issue {
	return Issue{
		Field:   name,
		Code:    CodeUnresolvedCall,
		Message: fmt.Sprintf("no operation matches %d arg(s), block=%v", argc, hasBlock),
	}
}

func modeConflict(field, msg string) Issue {
	return Issue{Field: field, Code: CodeModeConflict, Message: msg}
}

func missingProperty(src any, name string) Issue {
	return Issue{
		Field:   name,
		Code:    CodeMissingProperty,
		Message: fmt.Sprintf("%T has no readable property %q", src, name),
	}
}

func encodeFailure(err error) Issue {
	return Issue{Code: CodeEncodeFailure, Message: err.Error(), Cause: err}
}
