package mock

import (
	"errors"
	"fmt"
)

// Error codes
// M001-M099: build phase
// M100-M199: generate phase
const (
	CodeUnclassifiable = "M001"
	CodeSlotRead       = "M002"

	CodeUnknownCategory = "M100"
	CodeDanglingRef     = "M101"
	CodeMalformedTree   = "M102"
)

// Phases
const (
	PhaseBuild    = "build"
	PhaseGenerate = "generate"
)

var (
	// ErrUnclassifiable is returned when the root of a mirror cannot be classified.
	ErrUnclassifiable = errors.New("value cannot be mirrored")
	// ErrSlotRead is returned when reading a slot (for example an export getter) fails.
	ErrSlotRead = errors.New("slot could not be read")
	// ErrUnknownCategory signals a metadata node with a category the generator does not handle.
	ErrUnknownCategory = errors.New("unknown metadata category")
	// ErrDanglingRef signals a back-reference to a refId that has not been generated yet.
	ErrDanglingRef = errors.New("back-reference to unknown refId")
	// ErrMalformedTree signals members attached to a node that cannot hold them.
	ErrMalformedTree = errors.New("malformed metadata tree")
)

// Error describes a failed build or generate pass.
type Error struct {
	Phase   string // "build" or "generate"
	Code    string // "M001", "M100", etc.
	Path    string // slot path from the root, e.g. "<root>.api.fetch"
	Message string

	kind  error
	cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s: %s", e.Phase, e.Code, e.Path, e.Message)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	errs := []error{e.kind}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

func newError(phase, code string, kind error, path, message string) *Error {
	return &Error{
		Phase:   phase,
		Code:    code,
		Path:    path,
		Message: message,
		kind:    kind,
	}
}

func (e *Error) withCause(err error) *Error {
	e.cause = err
	return e
}

// IsInvariantViolation reports whether err signals a metadata tree the
// builder could never have produced.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrDanglingRef) || errors.Is(err, ErrUnknownCategory) || errors.Is(err, ErrMalformedTree)
}
