package rlwe

import (
	"github.com/heprivacy/hepir/herrors"
	"github.com/heprivacy/hepir/ring"
)

// simdTables caches the plaintext-ring NTT tables used for SIMD batch
// encoding, via the CRT isomorphism realized by the plaintext-ring NTT.
// Present only when Params.SupportsSimdEncoding().
type simdTables struct {
	ctx *ring.PolyContext
}

// Context caches, for every rung of the mod-switch ladder, the RNS
// PolyContext, the plaintext-ring SIMD tables (when supported), and the
// mod-switch scaling constants. It is immutable after construction and safe
// to share across goroutines.
type Context struct {
	Params EncryptionParameters
	RingQ  *ring.PolyContext

	bredT []uint64
	simd  *simdTables

	// deltaPerLevel[lvl] holds, per RNS row at that level, round(Qi_product/t)
	// style scaling used by encryption/decryption; computed lazily by the
	// bfv package which owns the exact rounding semantics.
}

// NewContext validates params and builds the ring context chain.
func NewContext(params EncryptionParameters) (*Context, error) {
	ringQ, err := ring.NewPolyContext(params.N(), params.Q())
	if err != nil {
		return nil, herrors.Wrap(herrors.InvalidContext, err, "failed to build ciphertext ring context")
	}

	c := &Context{
		Params: params,
		RingQ:  ringQ,
		bredT:  ring.BRedParams(params.T()),
	}

	if params.SupportsSimdEncoding() {
		tCtx, err := ring.NewPolyContext(params.N(), []uint64{params.T()})
		if err != nil {
			return nil, herrors.Wrap(herrors.InvalidContext, err, "failed to build plaintext SIMD ring context")
		}
		c.simd = &simdTables{ctx: tCtx}
	}

	return c, nil
}

// BRedParamsT returns the Barrett reduction constants for the plaintext
// modulus t.
func (c *Context) BRedParamsT() []uint64 { return c.bredT }

// SimdContext returns the single-modulus plaintext-ring context used for
// SIMD batch encoding, or (nil, false) when t doesn't support it.
func (c *Context) SimdContext() (*ring.PolyContext, bool) {
	if c.simd == nil {
		return nil, false
	}
	return c.simd.ctx, true
}

// LevelContext returns the RNS context at the given level (0 = fewest
// moduli, Params.QCount()-1 = full chain).
func (c *Context) LevelContext(level int) (*ring.PolyContext, error) {
	return c.RingQ.RemoveLastModuli(c.RingQ.Level() - level)
}
