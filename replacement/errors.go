package replacement

import (
	"errors"
	"fmt"
)

// ErrorCode represents different types of simulation errors
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota

	// Input errors, raised before any algorithm runs
	ErrCodeInvalidInput
	ErrCodeUnknownAlgorithm

	// Collaborator errors
	ErrCodeCommentaryUnavailable
	ErrCodeCorruptHistory
)

// String returns the taxonomy name of the code
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidInput:
		return "InvalidInput"
	case ErrCodeUnknownAlgorithm:
		return "UnknownAlgorithm"
	case ErrCodeCommentaryUnavailable:
		return "CommentaryUnavailable"
	case ErrCodeCorruptHistory:
		return "CorruptHistory"
	default:
		return "Unknown"
	}
}

// SimulationError represents a simulation error with context
type SimulationError struct {
	Code    ErrorCode
	Message string
	Op      string // Operation that failed
	Err     error  // Underlying error (if any)
}

// Error implements the error interface
func (e *SimulationError) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *SimulationError) Unwrap() error {
	return e.Err
}

// Is matches any SimulationError carrying the same code
func (e *SimulationError) Is(target error) bool {
	if t, ok := target.(*SimulationError); ok {
		return e.Code == t.Code
	}
	return false
}

// NewSimulationError creates a new simulation error
func NewSimulationError(code ErrorCode, op, message string, err error) *SimulationError {
	return &SimulationError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// Sentinels for errors.Is matching by code.
var (
	ErrInvalidInput          = &SimulationError{Code: ErrCodeInvalidInput, Message: "invalid input"}
	ErrUnknownAlgorithm      = &SimulationError{Code: ErrCodeUnknownAlgorithm, Message: "unknown algorithm"}
	ErrCommentaryUnavailable = &SimulationError{Code: ErrCodeCommentaryUnavailable, Message: "commentary unavailable"}
	ErrCorruptHistory        = &SimulationError{Code: ErrCodeCorruptHistory, Message: "corrupt history"}
)

// Helper functions for common errors

func ErrEmptyReferences(op string) *SimulationError {
	return NewSimulationError(
		ErrCodeInvalidInput,
		op,
		"reference sequence is empty",
		nil,
	)
}

func ErrInvalidReference(op string, position int, token string, err error) *SimulationError {
	return NewSimulationError(
		ErrCodeInvalidInput,
		op,
		fmt.Sprintf("reference %d (%q) is not a page number", position+1, token),
		err,
	)
}

func ErrNegativeReference(op string, position, page int) *SimulationError {
	return NewSimulationError(
		ErrCodeInvalidInput,
		op,
		fmt.Sprintf("reference %d is negative: %d", position+1, page),
		nil,
	)
}

func ErrInvalidFrameCount(op string, frameCount int) *SimulationError {
	return NewSimulationError(
		ErrCodeInvalidInput,
		op,
		fmt.Sprintf("frame count must be positive, got %d", frameCount),
		nil,
	)
}

func ErrAlgorithmNotSupported(op, token string) *SimulationError {
	return NewSimulationError(
		ErrCodeUnknownAlgorithm,
		op,
		fmt.Sprintf("algorithm %q is not supported", token),
		nil,
	)
}

func ErrCommentaryFailed(op string, err error) *SimulationError {
	return NewSimulationError(
		ErrCodeCommentaryUnavailable,
		op,
		"commentary request failed",
		err,
	)
}

func ErrHistoryCorrupted(op, message string, err error) *SimulationError {
	return NewSimulationError(
		ErrCodeCorruptHistory,
		op,
		message,
		err,
	)
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// GetErrorCode returns the error code from an error, or ErrCodeUnknown
func GetErrorCode(err error) ErrorCode {
	var se *SimulationError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeUnknown
}
