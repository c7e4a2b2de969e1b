package ring

import "github.com/heprivacy/hepir/herrors"

// ErrInvalidBitCount is returned by GeneratePrimes when no prime of the
// requested bit length and NTT-friendliness exists in range.
var ErrInvalidBitCount = herrors.New(herrors.InvalidBitCount, "invalid bit count")

// errInvalidContextHelper is a tiny factory so call sites can write
// ErrInvalidContext.withMessage(...) to get a fresh *herrors.Error sharing
// the InvalidContext Kind with a specific message.
type errInvalidContextHelper struct{}

func (errInvalidContextHelper) withMessage(format string, args ...any) *herrors.Error {
	return herrors.New(herrors.InvalidContext, format, args...)
}

// ErrInvalidContext is returned when a polynomial's context and its chain
// position disagree, or a mod-switch is requested past the end of the
// chain.
var ErrInvalidContext = errInvalidContextHelper{}
