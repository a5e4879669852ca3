package errors

import "errors"

var (
	ErrCreateFailed       = errors.New("container creation failed")
	ErrStartFailed        = errors.New("container start failed")
	ErrExecFailed         = errors.New("exec session failed")
	ErrTransferFailed     = errors.New("file transfer failed")
	ErrStreamFailed       = errors.New("output stream failed")
	ErrManifestInvalid    = errors.New("manifest invalid")
	ErrRuntimeUnavailable = errors.New("container runtime unavailable")
)

// RunboxError carries a failure's classification alongside the human-facing
// context the handler reports: which operation failed, on which container,
// why, and what the user can do about it.
type RunboxError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *RunboxError) Error() string {
	if e.OriginalErr == nil {
		return e.Type.Error()
	}
	return e.OriginalErr.Error()
}

// Unwrap exposes both the classification sentinel and the underlying error,
// so errors.Is matches either one.
func (e *RunboxError) Unwrap() []error {
	if e.OriginalErr == nil {
		return []error{e.Type}
	}
	return []error{e.Type, e.OriginalErr}
}

func NewRunboxError(errorType error, context, cause, suggestion string, originalErr error) *RunboxError {
	return &RunboxError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewCreateError(context, cause, suggestion string, originalErr error) *RunboxError {
	return NewRunboxError(ErrCreateFailed, context, cause, suggestion, originalErr)
}

func NewStartError(context, cause, suggestion string, originalErr error) *RunboxError {
	return NewRunboxError(ErrStartFailed, context, cause, suggestion, originalErr)
}

func NewExecError(context, cause, suggestion string, originalErr error) *RunboxError {
	return NewRunboxError(ErrExecFailed, context, cause, suggestion, originalErr)
}

func NewTransferError(context, cause, suggestion string, originalErr error) *RunboxError {
	return NewRunboxError(ErrTransferFailed, context, cause, suggestion, originalErr)
}

func NewStreamError(context, cause, suggestion string, originalErr error) *RunboxError {
	return NewRunboxError(ErrStreamFailed, context, cause, suggestion, originalErr)
}

func NewManifestError(context, cause, suggestion string, originalErr error) *RunboxError {
	return NewRunboxError(ErrManifestInvalid, context, cause, suggestion, originalErr)
}

func NewRuntimeError(context, cause, suggestion string, originalErr error) *RunboxError {
	return NewRunboxError(ErrRuntimeUnavailable, context, cause, suggestion, originalErr)
}
