package bfv

import (
	"github.com/heprivacy/hepir/herrors"
	"github.com/heprivacy/hepir/ring"
	"github.com/heprivacy/hepir/rlwe"
)

// Encoder packs and unpacks plaintext vectors, batching them across SIMD
// slots via the plaintext ring's NTT when the plaintext modulus supports it
// (t ≡ 1 mod 2N), falling back to plain coefficient packing otherwise.
type Encoder struct {
	ctx     *rlwe.Context
	simdCtx *ring.PolyContext
	simd    bool
	slotIdx []int
}

// NewEncoder builds an Encoder over ctx.
func NewEncoder(ctx *rlwe.Context) *Encoder {
	e := &Encoder{ctx: ctx}
	if simdCtx, ok := ctx.SimdContext(); ok {
		e.simd = true
		e.simdCtx = simdCtx
		e.slotIdx = buildSlotIndex(ctx.Params.N())
	}
	return e
}

// buildSlotIndex computes, for each SIMD slot i, the coefficient-domain NTT
// evaluation-point index it corresponds to, by walking the orbit of the
// Galois generator through the 2N-th roots of unity: slots [0, N/2) follow
// successive powers of GaloisGen (row 0), slots [N/2, N) follow the
// row-swapped (negated-exponent) orbit (row 1) — the row-swap-and-reverse
// layout used by CRT-batching BFV/BGV encoders.
func buildSlotIndex(N int) []int {
	halfN := N / 2
	twoN := uint64(2 * N)
	index := make([]int, N)

	pos := uint64(1)
	for i := 0; i < halfN; i++ {
		index[i] = int((pos - 1) / 2)
		index[i+halfN] = int(((twoN - pos) - 1) / 2)
		pos = (pos * ring.GaloisGen) % twoN
	}
	return index
}

// Encode packs values (length N, each < t) into a Plaintext. With SIMD
// support, values are treated as two rows of N/2 independent slots and
// packed via an inverse NTT over the plaintext ring; otherwise values are
// the polynomial's raw coefficients.
func (e *Encoder) Encode(values []uint64) (*Plaintext, error) {
	N := e.ctx.Params.N()
	if len(values) != N {
		return nil, herrors.New(herrors.InvalidParameter, "encoder expects %d values, got %d", N, len(values))
	}
	t := e.ctx.Params.T()

	if !e.simd {
		pt := NewPlaintext(N)
		for i, v := range values {
			pt.Coeffs[i] = v % t
		}
		return pt, nil
	}

	evalForm := e.simdCtx.NewPoly(ring.Eval)
	for slot, idx := range e.slotIdx {
		evalForm.Coeffs[0][idx] = values[slot] % t
	}

	mont := e.simdCtx.NewPoly(ring.Eval)
	e.simdCtx.ToMontgomery(evalForm, mont)
	coeffMont := e.simdCtx.NewPoly(ring.Coeff)
	e.simdCtx.INTT(mont, coeffMont)
	coeffStd := e.simdCtx.NewPoly(ring.Coeff)
	e.simdCtx.FromMontgomery(coeffMont, coeffStd)

	return &Plaintext{Coeffs: append([]uint64(nil), coeffStd.Coeffs[0]...)}, nil
}

// Decode unpacks pt back into N slot values.
func (e *Encoder) Decode(pt *Plaintext) []uint64 {
	N := e.ctx.Params.N()
	if !e.simd {
		return append([]uint64(nil), pt.Coeffs...)
	}

	coeffStd := e.simdCtx.NewPoly(ring.Coeff)
	copy(coeffStd.Coeffs[0], pt.Coeffs)
	mont := e.simdCtx.NewPoly(ring.Coeff)
	e.simdCtx.ToMontgomery(coeffStd, mont)
	evalMont := e.simdCtx.NewPoly(ring.Coeff)
	e.simdCtx.NTT(mont, evalMont)
	evalStd := e.simdCtx.NewPoly(ring.Eval)
	e.simdCtx.FromMontgomery(evalMont, evalStd)

	values := make([]uint64, N)
	for slot, idx := range e.slotIdx {
		values[slot] = evalStd.Coeffs[0][idx]
	}
	return values
}
