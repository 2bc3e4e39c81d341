package bridge

import (
	"errors"
	"net/http"

	"llamabridge/internal/serializer"
)

// Error codes reported to clients.
const (
	CodeInvalidArgs        = "INVALID_ARGS"
	CodeModelNotFound      = "MODEL_NOT_FOUND"
	CodeInitFailed         = "INIT_FAILED"
	CodeNotLoaded          = "MODEL_NOT_LOADED"
	CodeBusy               = "BUSY"
	CodeGenerationFailed   = "GENERATION_FAILED"
	CodeSerializerShutdown = "SERIALIZER_SHUTDOWN"
	CodeNoSubscriber       = "NO_EVENT_SINK"
)

// Error is implemented by every error the Session returns.
type Error interface {
	error
	Code() string
	StatusCode() int
}

// invalidArgsError signals a missing or malformed required field.
type invalidArgsError struct{ msg string }

func (e invalidArgsError) Error() string   { return "invalid arguments: " + e.msg }
func (e invalidArgsError) Code() string    { return CodeInvalidArgs }
func (e invalidArgsError) StatusCode() int { return http.StatusBadRequest }

// ErrInvalidArgs constructs an invalid-arguments error.
func ErrInvalidArgs(msg string) error { return invalidArgsError{msg: msg} }

// IsInvalidArgs reports whether err indicates a malformed request.
func IsInvalidArgs(err error) bool {
	var e invalidArgsError
	return errors.As(err, &e)
}

// modelNotFoundError signals that a path or id does not resolve to a readable file.
type modelNotFoundError struct {
	ref   string
	cause error
}

func (e modelNotFoundError) Error() string {
	if e.cause != nil {
		return "model not found: " + e.ref + ": " + e.cause.Error()
	}
	return "model not found: " + e.ref
}
func (e modelNotFoundError) Unwrap() error   { return e.cause }
func (e modelNotFoundError) Code() string    { return CodeModelNotFound }
func (e modelNotFoundError) StatusCode() int { return http.StatusNotFound }

// ErrModelNotFound returns an error for a path or registry id that cannot be loaded.
func ErrModelNotFound(ref string) error { return modelNotFoundError{ref: ref} }

// IsModelNotFound reports whether the error indicates a missing model file.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// initFailedError signals that the engine refused to load the model.
type initFailedError struct {
	path  string
	cause error
}

func (e initFailedError) Error() string {
	return "failed to initialize model " + e.path + ": " + e.cause.Error()
}
func (e initFailedError) Unwrap() error { return e.cause }
func (e initFailedError) Code() string  { return CodeInitFailed }

// StatusCode is 503 when the binary lacks the native engine, 500 otherwise.
func (e initFailedError) StatusCode() int {
	if IsDependencyUnavailable(e.cause) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// IsInitFailed reports whether err indicates a native init failure.
func IsInitFailed(err error) bool {
	var e initFailedError
	return errors.As(err, &e)
}

type notLoadedError struct{}

func (notLoadedError) Error() string   { return "model not loaded" }
func (notLoadedError) Code() string    { return CodeNotLoaded }
func (notLoadedError) StatusCode() int { return http.StatusConflict }

// ErrNotLoaded is returned by operations that need a loaded model.
var ErrNotLoaded error = notLoadedError{}

// IsNotLoaded reports whether err indicates that no model is loaded.
func IsNotLoaded(err error) bool {
	var e notLoadedError
	return errors.As(err, &e)
}

// busyError signals that the session is loading or generating.
type busyError struct {
	state State
	// queueFull marks a rejection by the engine worker rather than the state.
	queueFull bool
}

func (e busyError) Error() string {
	if e.queueFull {
		return "session busy: engine queue full"
	}
	return "session busy: " + string(e.state)
}
func (e busyError) Code() string    { return CodeBusy }
func (e busyError) StatusCode() int { return http.StatusConflict }

// IsBusy reports whether err indicates that the session is loading or generating.
func IsBusy(err error) bool {
	var e busyError
	return errors.As(err, &e)
}

// generationFailedError signals that the engine produced no result.
type generationFailedError struct{ cause error }

func (e generationFailedError) Error() string   { return "generation failed: " + e.cause.Error() }
func (e generationFailedError) Unwrap() error   { return e.cause }
func (e generationFailedError) Code() string    { return CodeGenerationFailed }
func (e generationFailedError) StatusCode() int { return http.StatusInternalServerError }

// IsGenerationFailed reports whether err indicates a native generation failure.
func IsGenerationFailed(err error) bool {
	var e generationFailedError
	return errors.As(err, &e)
}

type shutdownError struct{}

func (shutdownError) Error() string   { return "engine worker shut down" }
func (shutdownError) Code() string    { return CodeSerializerShutdown }
func (shutdownError) StatusCode() int { return http.StatusServiceUnavailable }
func (shutdownError) Unwrap() error   { return serializer.ErrShutdown }

// ErrSerializerShutdown is returned once the engine worker is gone.
var ErrSerializerShutdown error = shutdownError{}

// IsSerializerShutdown reports whether err indicates the worker is unavailable.
func IsSerializerShutdown(err error) bool {
	var e shutdownError
	return errors.As(err, &e) || errors.Is(err, serializer.ErrShutdown)
}

type noSubscriberError struct{}

func (noSubscriberError) Error() string   { return "no stream subscriber attached" }
func (noSubscriberError) Code() string    { return CodeNoSubscriber }
func (noSubscriberError) StatusCode() int { return http.StatusConflict }

// ErrNoSubscriber is returned by GenerateStream when nobody is subscribed.
var ErrNoSubscriber error = noSubscriberError{}

// IsNoSubscriber reports whether err indicates a missing stream subscriber.
func IsNoSubscriber(err error) bool {
	var e noSubscriberError
	return errors.As(err, &e)
}

// CodeOf returns the error code of err, or "" for foreign errors.
func CodeOf(err error) string {
	var e Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return ""
}

// dependencyUnavailableError signals a missing native dependency (e.g. a
// binary built without the llama tag).
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

// queueErr converts serializer admission failures into typed errors.
func queueErr(err error) error {
	if errors.Is(err, serializer.ErrShutdown) {
		return ErrSerializerShutdown
	}
	return err
}

// jobErr maps the outcome of an admitted job. Shutdown wins over wrap.
func jobErr(err error, wrap func(error) error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, serializer.ErrShutdown) {
		return ErrSerializerShutdown
	}
	return wrap(err)
}
