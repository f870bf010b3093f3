// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrStorage is matched by every StorageFailure.
	ErrStorage = errors.New("storage failure")

	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInvariant is matched by every InvariantViolation.
	ErrInvariant = errors.New("invariant violation")

	// ErrNotUndoable is returned when an undo targets an unknown or already consumed entry.
	ErrNotUndoable = errors.New("action is not undoable")

	// ErrBlobMissing is returned when a track's audio payload is no longer in the blob store.
	ErrBlobMissing = errors.New("audio blob missing")

	// ErrNoActiveTrack is returned when playback is attempted with no active track.
	ErrNoActiveTrack = errors.New("no active track")

	// ErrInvalidIndex is returned when a playlist position is out of bounds.
	ErrInvalidIndex = errors.New("invalid playlist position")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrInvalidHandle is returned when a playback handle is unknown or revoked.
	ErrInvalidHandle = errors.New("invalid playback handle")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrUnsupportedFormat is returned when an input is not recognised as audio.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrPlaybackFailed is returned when playback cannot be started.
	ErrPlaybackFailed = errors.New("playback failed")

	// ErrClosed is returned when a component is used after Close.
	ErrClosed = errors.New("closed")
)

// PlaybackError represents an error from the playback engine.
type PlaybackError struct {
	Op      string         // Operation that failed (e.g., "load", "play", "stop")
	Handle  PlaybackHandle // Handle involved (if any)
	Message string
	Err     error
}

// Error implements the error interface.
func (e *PlaybackError) Error() string {
	if e.Handle != InvalidPlaybackHandle {
		return fmt.Sprintf("playback %s failed for '%s': %s", e.Op, e.Handle, e.Message)
	}
	return fmt.Sprintf("playback %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// NewPlaybackError creates a new PlaybackError.
func NewPlaybackError(op string, handle PlaybackHandle, message string, err error) *PlaybackError {
	return &PlaybackError{
		Op:      op,
		Handle:  handle,
		Message: message,
		Err:     err,
	}
}

// StorageFailure represents a failed read or write against the blob or document store.
type StorageFailure struct {
	Op      string // Operation that failed (e.g., "put", "get", "write")
	Store   string // Store kind (e.g., "blob", "document")
	Message string
	Err     error
}

// Error implements the error interface.
func (e *StorageFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s.%s failed: %s: %v", e.Store, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("storage %s.%s failed: %s", e.Store, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *StorageFailure) Unwrap() error {
	return e.Err
}

// Is matches ErrStorage.
func (e *StorageFailure) Is(target error) bool {
	return target == ErrStorage
}

// NewStorageFailure creates a new StorageFailure.
func NewStorageFailure(op, store, message string, err error) *StorageFailure {
	return &StorageFailure{
		Op:      op,
		Store:   store,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Value that failed validation
	Message string
	Err     error // Optional sentinel narrowing the failure
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap returns the narrower cause, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NotFoundError reports an unknown playlist, track or log entry.
type NotFoundError struct {
	Kind string // "playlist", "track", "action"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// InvariantViolation is returned when an operation would break a structural rule,
// such as deleting the default queue.
type InvariantViolation struct {
	Rule    string
	Message string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Rule, e.Message)
}

// Is matches ErrInvariant.
func (e *InvariantViolation) Is(target error) bool {
	return target == ErrInvariant
}

// NewInvariantViolation creates a new InvariantViolation.
func NewInvariantViolation(rule, message string) *InvariantViolation {
	return &InvariantViolation{Rule: rule, Message: message}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "TrackRegistry", "Deck")
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
