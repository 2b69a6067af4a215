// Package errors provides structured error types for foreman. They carry
// enough context to render a single actionable line on the CLI, prefixed
// with the offending tool alias where one is known.
//
//nolint:revive // Package name intentionally shadows stdlib errors for convenience.
package errors

import stderrors "errors"

// Category classifies an error into one of the seven kinds foreman
// distinguishes in its error handling design.
type Category string

const (
	// CategoryConfig covers syntax errors, missing hosts, duplicate host
	// keys, and non-parsing version constraints.
	CategoryConfig Category = "config"
	// CategoryResolution covers "no release matches constraint" and
	// "all tags non-SemVer" failures.
	CategoryResolution Category = "resolution"
	// CategoryArtifact covers "no compatible asset for OS/Arch".
	CategoryArtifact Category = "artifact"
	// CategoryTransport covers HTTP 4xx/5xx, DNS, TLS, and truncated-body
	// failures.
	CategoryTransport Category = "transport"
	// CategoryExtraction covers unknown/corrupt archive formats and
	// rejected path traversal.
	CategoryExtraction Category = "extraction"
	// CategoryCache covers a missing cached binary at trampoline dispatch
	// time.
	CategoryCache Category = "cache"
	// CategoryDispatch covers an unknown alias at trampoline entry.
	CategoryDispatch Category = "dispatch"
)

// Code is a short machine-readable error code.
type Code string

const (
	CodeConfigParse           Code = "E101"
	CodeConfigMissingHost     Code = "E102"
	CodeConfigDuplicateHost   Code = "E103"
	CodeConfigBadVersion      Code = "E104"
	CodeConfigUnsupportedHost Code = "E105"

	CodeNoMatchingRelease Code = "E201"
	CodeAllTagsInvalid    Code = "E202"

	CodeNoCompatibleAsset Code = "E301"

	CodeHTTPError     Code = "E401"
	CodeNetworkFailed Code = "E402"

	CodeUnknownArchive Code = "E501"
	CodeCorruptArchive Code = "E502"
	CodePathTraversal  Code = "E503"

	CodeMissingCachedBinary Code = "E601"

	CodeUnknownAlias Code = "E701"
)

// Error is the base error type for foreman.
type Error struct {
	// Category classifies the error.
	Category Category

	// Code is a short machine-readable code.
	Code Code

	// Alias is the tool alias this error concerns, if any. When set, CLI
	// output is prefixed with it.
	Alias string

	// Message is a short, human-actionable description.
	Message string

	// Details carries additional structured context (repo, constraint,
	// status code, candidate names, ...).
	Details map[string]any

	// Hint is actionable advice shown alongside the message.
	Hint string

	// Cause is the wrapped underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Alias != "" {
		msg = e.Alias + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by Code, falling back to
// Category+Message when either side lacks a code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code != "" && t.Code != "" {
		return e.Code == t.Code
	}
	return e.Category == t.Category && e.Message == t.Message
}

// WithAlias sets the owning tool alias and returns the error for chaining.
func (e *Error) WithAlias(alias string) *Error {
	e.Alias = alias
	return e
}

// WithHint sets the hint and returns the error for chaining.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithDetail adds a detail entry and returns the error for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given category and message.
func New(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(category Category, message string, cause error) *Error {
	return &Error{Category: category, Message: message, Cause: cause}
}

// WithAlias attaches alias to err if it's a *Error, leaving any other
// error untouched. Safe to call on errors that didn't originate here.
func WithAlias(err error, alias string) error {
	var e *Error
	if stderrors.As(err, &e) {
		return e.WithAlias(alias)
	}
	return err
}

// ExitCode maps an error's category to the exit code contract in the
// external interfaces design: 1 for config errors, 2 for resolution and
// artifact errors, 3 for everything else (transport, extraction, cache,
// dispatch). Errors that aren't *Error default to 3.
func ExitCode(err error) int {
	var e *Error
	if !stderrors.As(err, &e) {
		return 3
	}
	switch e.Category {
	case CategoryConfig:
		return 1
	case CategoryResolution, CategoryArtifact:
		return 2
	default:
		return 3
	}
}
