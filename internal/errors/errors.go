package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/pillbook/internal/logger"
)

// Kind classifies a failure reported by a repository.
type Kind string

const (
	// KindValidation is caller-correctable input; never retried
	KindValidation Kind = "validation"
	// KindNotFound means the operation targeted a record that does not exist
	KindNotFound Kind = "not_found"
	// KindConflict means the write would duplicate an existing record
	KindConflict Kind = "conflict"
	// KindStore wraps an underlying persistence failure
	KindStore Kind = "store"
	// KindUnavailable is returned once a repository has been cleaned up
	KindUnavailable Kind = "unavailable"
)

// Fixed, user-displayable messages.
const (
	MsgContentEmpty        = "content must not be empty"
	MsgContentTooLong      = "content exceeds 5000 characters"
	MsgMedicationName      = "medication name is required"
	MsgMedicationColor     = "medication color is required"
	MsgDosageForm          = "dosage form is required"
	MsgNegativeQuantity    = "quantities must not be negative"
	MsgRecordNameEmpty     = "medication name must not be empty"
	MsgOwnerRequired       = "diary owner is required"
	MsgKeywordEmpty        = "search keyword must not be empty"
	MsgInvalidTimeRange    = "invalid time range"
	MsgInvalidID           = "id must be positive"
	MsgRepositoryClosed    = "repository is closed"
	MsgDuplicateMedication = "a medication with this name already exists"
	MsgScheduleMedication  = "schedule must belong to a medication"
	MsgCycleType           = "cycle type must be daily, weekly, monthly or every_x_days"
	MsgReminderTimes       = "at least one reminder time in HH:MM format is required"
	MsgWeekdays            = "weekly schedules need at least one weekday"
	MsgDayOfMonth          = "day of month must be between 1 and 31"
	MsgIntervalDays        = "interval must be between 1 and 365 days"
)

// Error is the single error type delivered through repository results.
// Message is stable and safe to show to a user; Err carries the cause for
// logging.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a KindValidation error with msg.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound returns a KindNotFound error naming the entity and id.
func NotFound(entity string, id int64) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %d not found", entity, id)}
}

// Conflict returns a KindConflict error with msg.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Store wraps a persistence failure. The message stays generic; the cause is
// only reachable through Unwrap.
func Store(op string, cause error) *Error {
	return &Error{Kind: KindStore, Message: "failed to " + op, Err: cause}
}

// Unavailable returns a KindUnavailable error.
func Unavailable(msg string) *Error {
	return &Error{Kind: KindUnavailable, Message: msg}
}

// KindOf reports the Kind of err, or "" when err is nil or not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err, "kind", KindOf(err))
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
