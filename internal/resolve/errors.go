package resolve

import "errors"

// ErrResolution matches every error returned by Resolver.Run.
var ErrResolution = errors.New("failed to expose credential/repository properties")

// Error wraps the cause of a failed resolution run.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return ErrResolution.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both ErrResolution and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{ErrResolution, e.Err}
}
