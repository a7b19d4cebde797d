package handler

import (
	"errors"
	"fmt"
)

// Status code and message reported when a batch fails for any reason.
const (
	StatusUnknownInference = 500
	MsgUnknownInference    = "Unknown inference error"
)

var (
	// ErrNotInitialized is returned when Handle runs before Initialize succeeded.
	ErrNotInitialized = errors.New("handler not initialized")
	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("handler already initialized")

	errMissing = errors.New("missing required property")
)

// ConfigurationError signals required configuration missing or invalid at
// Initialize. It is fatal: the handler stays uninitialized.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "configuration: " + e.Err.Error()
	}
	return fmt.Sprintf("configuration %q: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// InvalidBatchSizeError signals a batch whose length differs from the
// configured batch size.
type InvalidBatchSizeError struct {
	Want int
	Got  int
}

func (e *InvalidBatchSizeError) Error() string {
	return fmt.Sprintf("Invalid input batch size: %d (expected %d)", e.Got, e.Want)
}

// IsInvalidBatchSize reports whether err is or wraps an InvalidBatchSizeError.
func IsInvalidBatchSize(err error) bool {
	var be *InvalidBatchSizeError
	return errors.As(err, &be)
}

// UnknownInferenceError wraps any failure raised by a stage during Handle.
type UnknownInferenceError struct {
	Stage Stage
	Err   error
}

func (e *UnknownInferenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *UnknownInferenceError) Unwrap() error { return e.Err }

// IsUnknownInference reports whether err is or wraps an UnknownInferenceError.
func IsUnknownInference(err error) bool {
	var ue *UnknownInferenceError
	return errors.As(err, &ue)
}

// panicError carries a recovered stage panic.
type panicError struct{ v any }

func (e panicError) Error() string { return fmt.Sprintf("panic: %v", e.v) }
