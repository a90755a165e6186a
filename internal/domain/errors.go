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

	// ErrResolution is matched by every ResolutionError.
	ErrResolution = errors.New("locator resolution failed")

	// ErrMedia is matched by every MediaError.
	ErrMedia = errors.New("media playback failed")

	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidIndex is returned when a queue index is out of bounds.
	ErrInvalidIndex = errors.New("invalid queue index")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrNoTrackLoaded is returned when an operation needs a current track.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrTrackLoading is returned when a transport control is used while the track is loading.
	ErrTrackLoading = errors.New("track is loading")

	// ErrUnsupportedScheme is returned by resolvers for locators they cannot handle.
	ErrUnsupportedScheme = errors.New("unsupported locator scheme")

	// ErrUnknownContent is returned by resolvers when a locator has no mapping.
	ErrUnknownContent = errors.New("no content for locator")

	// ErrMediaClosed is returned when a closed media handle is used.
	ErrMediaClosed = errors.New("media handle closed")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrScanCancelled is returned when a library scan is canceled.
	ErrScanCancelled = errors.New("scan cancelled")

	// ErrNotAuthenticated is returned when an operation needs a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidCredentials is returned when a login attempt is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NotFoundError reports a CRUD operation that references a missing playlist or track.
type NotFoundError struct {
	Kind string // "playlist" or "track"
	ID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) succeed.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ResolutionError reports a locator that could not be turned into a playable URL.
type ResolutionError struct {
	Locator string
	Err     error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %q: %v", e.Locator, e.Err)
	}
	return fmt.Sprintf("resolve %q failed", e.Locator)
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrResolution) succeed.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// NewResolutionError creates a new ResolutionError.
func NewResolutionError(locator string, err error) *ResolutionError {
	return &ResolutionError{Locator: locator, Err: err}
}

// MediaError represents a runtime failure reported by the media resource.
type MediaError struct {
	Op  string // Operation that failed (e.g., "open", "play", "decode")
	URL string // Media URL (if applicable)
	Err error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *MediaError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("media %s failed for '%s': %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("media %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *MediaError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMedia) succeed.
func (e *MediaError) Is(target error) bool {
	return target == ErrMedia
}

// NewMediaError creates a new MediaError.
func NewMediaError(op, url string, err error) *MediaError {
	return &MediaError{Op: op, URL: url, Err: err}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load", "delete")
	Type    string // Repository type (e.g., "playlist", "preferences")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "LibraryService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
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
