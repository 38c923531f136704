// Package workflow defines the interview workflow stages and the errors surfaced to the operator.
package workflow

import (
	"errors"
	"fmt"

	"talentscout/pkg/agent/llmerrors"
)

// Stage is one step of the forward-only workflow.
type Stage string

const (
	StageIntake    Stage = "intake"
	StageQuestions Stage = "questions"
	StageInterview Stage = "interview"
	StageReport    Stage = "report"
)

// Kind classifies a workflow error.
type Kind int8

const (
	// KindValidation is bad operator or candidate input.
	KindValidation Kind = iota
	// KindSchema is a model response that did not match the requested shape.
	KindSchema
	// KindTransport is a failed or unreachable model call.
	KindTransport
	// KindParse is an unreadable uploaded document.
	KindParse
	// KindIllegal is an action that is not legal in the current state.
	KindIllegal
	// KindBusy is input received while a model call is in flight.
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSchema:
		return "schema_violation"
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	case KindIllegal:
		return "illegal"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Error is attached to the operator action that triggered it. Message is short enough to
// show next to the action.
type Error struct {
	Err     error
	Message string
	Stage   Stage
	Kind    Kind
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s error: %s: %v", e.Stage, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s error: %s", e.Stage, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error with a formatted message.
func Errorf(stage Stage, kind Kind, format string, args ...any) *Error {
	return &Error{Stage: stage, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new Error.
func Wrap(stage Stage, kind Kind, err error, message string) *Error {
	return &Error{Stage: stage, Kind: kind, Message: message, Err: err}
}

// FromLLM maps a model-call failure onto the workflow taxonomy. Responses that arrived
// but could not be used are schema violations; everything else is transport.
// Errors that are already workflow errors pass through.
func FromLLM(stage Stage, err error, message string) error {
	if err == nil {
		return nil
	}
	var werr *Error
	if errors.As(err, &werr) {
		return werr
	}
	var lerr *llmerrors.Error
	if errors.As(err, &lerr) && lerr.IsSchemaViolation() {
		return Wrap(stage, KindSchema, err, message)
	}
	return Wrap(stage, KindTransport, err, message)
}

// KindOf returns the Kind of err and whether err is a workflow error.
func KindOf(err error) (Kind, bool) {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind, true
	}
	return 0, false
}

// Is reports whether err is a workflow error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
