package common

import "errors"

// AppError is the error shape services hand to the HTTP layer: a stable
// machine code, a user-facing message, and the status the handler should
// respond with. Details, when set, is rendered into the error payload.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

// Unwrap exposes the wrapped cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError builds an AppError wrapping err as its cause.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError reports whether an AppError sits anywhere in err's chain.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
