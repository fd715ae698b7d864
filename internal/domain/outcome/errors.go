package outcome

import "fmt"

// ValidationError is an expected domain failure: the input did not pass a check.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewAgeError(threshold int) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf("Age less than %d", threshold)}
}

const (
	OpFetch  = "fetch"
	OpRead   = "read"
	OpDecode = "decode"
)

// TransportError wraps a network or decoding failure. Its message is the
// message of the wrapped error, unmodified.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
