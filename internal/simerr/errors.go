// Package simerr provides the structured error taxonomy used across the
// replay engine: configuration errors, trace-format errors, state-machine
// (fatal internal-consistency) errors, and benign anomalies.
package simerr

import (
	"errors"
	"fmt"
)

// Code represents a high-level error category (§7 of the design).
type Code string

const (
	// Configuration errors: fatal at startup.
	CodeBadConfig    Code = "bad configuration"
	CodeMissingTrace Code = "missing trace file"

	// Trace-format errors: fatal, abort simulation.
	CodeUnknownDatatype    Code = "unknown datatype"
	CodeUnsupportedMPICall Code = "unsupported MPI call"

	// State-machine errors: fatal internal-consistency errors.
	CodeEmptyReverseStack Code = "reverse on empty stack"
	CodeMatchOnEmptyQueue Code = "match on empty queue with nonzero count"
	CodeDoubleWait        Code = "second wait posted while one is pending"

	// Benign anomalies: logged, never propagated.
	CodeUnknownReqID   Code = "request id does not exist"
	CodeUnmatchedAtEnd Code = "unmatched operation at end"
)

// fatalCodes are the codes that must bubble to the kernel's termination
// routine rather than being absorbed as benign anomalies.
var fatalCodes = map[Code]bool{
	CodeBadConfig:          true,
	CodeMissingTrace:       true,
	CodeUnknownDatatype:    true,
	CodeUnsupportedMPICall: true,
	CodeEmptyReverseStack:  true,
	CodeMatchOnEmptyQueue:  true,
	CodeDoubleWait:         true,
}

// Error is a structured simulation error carrying enough context (operation,
// LP, rank) to be logged usefully without the caller having to reconstruct it.
type Error struct {
	Op    string // operation that failed (e.g. "GetNext", "Waitall")
	LP    uint64 // NW-LP global id (0 if not applicable)
	Rank  int32  // MPI rank (-1 if not applicable)
	Code  Code
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	switch {
	case e.LP != 0 && e.Op != "":
		return fmt.Sprintf("simerr: %s (op=%s lp=%d)", msg, e.Op, e.LP)
	case e.Op != "":
		return fmt.Sprintf("simerr: %s (op=%s)", msg, e.Op)
	default:
		return fmt.Sprintf("simerr: %s", msg)
	}
}

// Unwrap supports errors.Is/As against the wrapped cause.
func (e *Error) Unwrap() error { return e.Inner }

// Is supports errors.Is comparison against another *Error by Code.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Code == te.Code
	}
	return false
}

// Fatal reports whether this error's category must abort the simulation.
func (e *Error) Fatal() bool {
	return fatalCodes[e.Code]
}

// New creates a structured error.
func New(op string, code Code, msg string) *Error {
	return &Error{Op: op, Rank: -1, Code: code, Msg: msg}
}

// NewLP creates a structured error scoped to one NW-LP/rank.
func NewLP(op string, lp uint64, rank int32, code Code, msg string) *Error {
	return &Error{Op: op, LP: lp, Rank: rank, Code: code, Msg: msg}
}

// Wrap wraps an existing error with simulation context, preserving Code if
// inner is already a structured *Error.
func Wrap(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	var ie *Error
	if errors.As(inner, &ie) {
		return &Error{Op: op, LP: ie.LP, Rank: ie.Rank, Code: ie.Code, Msg: ie.Msg, Inner: ie.Inner}
	}
	return &Error{Op: op, Rank: -1, Code: CodeBadConfig, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err (or a wrapped cause) carries the given Code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
