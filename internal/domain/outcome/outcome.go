// Package outcome holds the result type shared by the validation and fetch steps.
//
// An Outcome is either a success carrying a value or a failure of a named kind
// carrying the original error. Callers switch on Kind instead of inspecting
// error identity; Unpack converts back to the usual (value, error) pair.
package outcome

import "fmt"

type Kind int

const (
	KindOk Kind = iota
	KindValidation
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindOk:
		return "ok"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Outcome[T any] struct {
	Kind  Kind
	Value T
	Err   error
}

func Ok[T any](value T) Outcome[T] {
	return Outcome[T]{Kind: KindOk, Value: value}
}

func Invalid[T any](err *ValidationError) Outcome[T] {
	return Outcome[T]{Kind: KindValidation, Err: err}
}

func Transport[T any](err *TransportError) Outcome[T] {
	return Outcome[T]{Kind: KindTransport, Err: err}
}

// Fail carries err over into an outcome of another value type, keeping its kind.
func Fail[T, U any](o Outcome[U]) Outcome[T] {
	return Outcome[T]{Kind: o.Kind, Err: o.Err}
}

func (o Outcome[T]) IsOk() bool {
	return o.Kind == KindOk
}

func (o Outcome[T]) Unpack() (T, error) {
	return o.Value, o.Err
}
