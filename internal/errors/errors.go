package errors

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned when a requested resource (e.g. a settings key) doesn't exist
var ErrNotFound = errors.New("resource not found")

// ErrInvalidInput is returned when the provided input is invalid
var ErrInvalidInput = errors.New("invalid input")

// ErrSubsystemAbsent is returned when a radio, adapter or system service isn't present
var ErrSubsystemAbsent = errors.New("subsystem absent")

// ErrTransitionInProgress is returned when a capability already has a live reconciliation attempt
var ErrTransitionInProgress = errors.New("transition in progress")

// ErrDisabled is returned when the control surface is used while disabled
var ErrDisabled = errors.New("control surface disabled")

// ErrInternal is returned for unexpected internal errors
var ErrInternal = errors.New("internal error")

// LogErrorAndReturn logs an error with structured context and returns it
func LogErrorAndReturn(logger *slog.Logger, err error, message string, args ...any) error {
	if err == nil {
		return nil
	}

	logger.Error(message, append([]any{"error", err}, args...)...)
	return err
}

// WrapErrorf wraps an error with additional context using fmt.Errorf
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// IsNotFound returns true if the error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput returns true if the error is or wraps ErrInvalidInput
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsSubsystemAbsent returns true if the error is or wraps ErrSubsystemAbsent
func IsSubsystemAbsent(err error) bool {
	return errors.Is(err, ErrSubsystemAbsent)
}

// IsTransitionInProgress returns true if the error is or wraps ErrTransitionInProgress
func IsTransitionInProgress(err error) bool {
	return errors.Is(err, ErrTransitionInProgress)
}

// IsDisabled returns true if the error is or wraps ErrDisabled
func IsDisabled(err error) bool {
	return errors.Is(err, ErrDisabled)
}

// NotFoundf returns a formatted ErrNotFound error
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// InvalidInputf returns a formatted ErrInvalidInput error
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

// SubsystemAbsentf returns a formatted ErrSubsystemAbsent error
func SubsystemAbsentf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrSubsystemAbsent)...)
}

// TransitionInProgressf returns a formatted ErrTransitionInProgress error
func TransitionInProgressf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrTransitionInProgress)...)
}

// Internalf returns a formatted ErrInternal error
func Internalf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInternal)...)
}
