// Package herrors defines the error taxonomy shared by every layer of the
// engine (ring, rlwe, bfv, pir, keywordpir): a small set of Kinds plus a
// wrapping Error type, in lattigo's own idiom of plain stdlib errors
// (lattigo uses errors.New/fmt.Errorf throughout, never a third-party
// wrapping library) generalized just enough to carry a typed Kind, so
// callers can distinguish failure classes programmatically.
package herrors

import "fmt"

// Kind classifies an Error into one of the engine's failure taxonomy
// buckets.
type Kind string

const (
	InvalidParameter           Kind = "InvalidParameter"
	InvalidBitCount            Kind = "InvalidBitCount"
	InvalidContext             Kind = "InvalidContext"
	CorruptedData              Kind = "CorruptedData"
	InvalidDatabase            Kind = "InvalidDatabase"
	MissingGaloisKey           Kind = "MissingGaloisKey"
	FailedToConstructCuckoo    Kind = "FailedToConstructCuckooTable"
	NoiseBudgetExhausted       Kind = "NoiseBudgetExhausted"
	InsecureParameters         Kind = "InsecureParameters"
)

// Error is the user-visible failure type: a taxonomy Kind, a human message,
// and an optional inner error.
type Error struct {
	Kind    Kind
	Message string
	Inner   error
}

func (e *Error) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Inner)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is reports whether target shares this error's Kind, so callers can write
// errors.Is(err, herrors.New(herrors.MissingGaloisKey, "")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// New constructs an *Error of the given Kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given Kind wrapping an inner error.
func Wrap(kind Kind, inner error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Inner: inner}
}
