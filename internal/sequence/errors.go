package sequence

import (
	"errors"
	"fmt"
)

// ConfigCode categorizes configuration errors.
type ConfigCode string

const (
	// ErrCodeEmptyTable indicates an interval table with no entries.
	ErrCodeEmptyTable ConfigCode = "EMPTY_INTERVAL_TABLE"

	// ErrCodeDuplicateProblem indicates a problem declared twice in the
	// interval table.
	ErrCodeDuplicateProblem ConfigCode = "DUPLICATE_PROBLEM"

	// ErrCodeBadInterval indicates a non-positive or sub-second interval.
	ErrCodeBadInterval ConfigCode = "BAD_INTERVAL"

	// ErrCodeMissingInterval indicates a problem referenced without an
	// interval table entry, or an entry without a problem.
	ErrCodeMissingInterval ConfigCode = "MISSING_INTERVAL"

	// ErrCodeInexactRatio indicates an adjacent interval pair whose ratio is
	// not a whole integer.
	ErrCodeInexactRatio ConfigCode = "INEXACT_INTERVAL_RATIO"

	// ErrCodeBadChronology indicates a malformed chronology variant.
	ErrCodeBadChronology ConfigCode = "BAD_CHRONOLOGY"

	// ErrCodeMissingChronology indicates a feedforward target with no
	// matching feedforward-chronology entry.
	ErrCodeMissingChronology ConfigCode = "MISSING_FEEDFORWARD_CHRONOLOGY"

	// ErrCodeCacheScope indicates a single-problem-only cache declared over
	// multiple problems.
	ErrCodeCacheScope ConfigCode = "CACHE_SCOPE"

	// ErrCodeSyncWindow indicates a synchronization window that cannot be
	// honored within the requested number of simulation steps.
	ErrCodeSyncWindow ConfigCode = "INFEASIBLE_SYNC_WINDOW"

	// ErrCodeDisconnected indicates problems with no feedforward-chronology
	// path linking them in a multi-problem sequence.
	ErrCodeDisconnected ConfigCode = "DISCONNECTED_PROBLEMS"
)

// ConfigurationError is a fatal construction- or build-time error. No
// sequence (or simulation) is produced when one is returned.
type ConfigurationError struct {
	// Code identifies the error category.
	Code ConfigCode

	// Problem names the offending problem, when one is identifiable.
	Problem string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Problem != "" {
		return fmt.Sprintf("%s: %s (problem=%s)", e.Code, e.Message, e.Problem)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newConfigError(code ConfigCode, problem, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Code:    code,
		Problem: problem,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsConfigurationError reports whether err is (or wraps) a
// ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ConfigCodeOf extracts the configuration code from err, or "" if err does
// not wrap a ConfigurationError.
func ConfigCodeOf(err error) ConfigCode {
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// InternalError indicates a resolver bug, not a user configuration problem.
// It should never surface during normal operation.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Message)
}

// IsInternalError reports whether err is (or wraps) an InternalError.
func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}
