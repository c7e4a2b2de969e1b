package bfv

import (
	"math/big"

	"github.com/heprivacy/hepir/herrors"
	"github.com/heprivacy/hepir/ring"
	"github.com/heprivacy/hepir/rlwe"
)

// Evaluator performs homomorphic operations on ciphertexts: addition,
// subtraction, plaintext-scaled addition/multiplication, ciphertext
// multiplication, relinearization, rotation, and mod-switching. It holds
// the client's evaluation key (Galois keys and, when supported, the
// relinearization key) so a server can evaluate on ciphertexts it never
// holds the secret for.
type Evaluator struct {
	ctx *rlwe.Context
	ek  *rlwe.EvaluationKey
}

// NewEvaluator builds an Evaluator over ctx, using ek for key-switching
// operations (Relinearize, Rotate, SwapRows). ek may be nil if the caller
// never intends to call those.
func NewEvaluator(ctx *rlwe.Context, ek *rlwe.EvaluationKey) *Evaluator {
	return &Evaluator{ctx: ctx, ek: ek}
}

func (e *Evaluator) level(ct *rlwe.Ciphertext) (*ring.PolyContext, error) {
	return e.ctx.LevelContext(ct.Level)
}

// Add returns ct1 + ct2. When the two correction factors differ, both
// ciphertexts are scaled up to their LCM before adding, so the result's
// correction factor is always well-defined.
func (e *Evaluator) Add(ct1, ct2 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return e.addSub(ct1, ct2, true)
}

// Sub returns ct1 - ct2, with the same correction-factor alignment as Add.
func (e *Evaluator) Sub(ct1, ct2 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return e.addSub(ct1, ct2, false)
}

func (e *Evaluator) addSub(ct1, ct2 *rlwe.Ciphertext, add bool) (*rlwe.Ciphertext, error) {
	if err := ct1.Materialize(e.ctx); err != nil {
		return nil, err
	}
	if err := ct2.Materialize(e.ctx); err != nil {
		return nil, err
	}
	lvlCtx, err := e.level(ct1)
	if err != nil {
		return nil, err
	}

	lcm := correctionFactorForCrossMultiply(ct1.CorrectionFactor, ct2.CorrectionFactor)
	scaled1 := e.scaleByFactor(lvlCtx, ct1, lcm/ct1.CorrectionFactor)
	scaled2 := e.scaleByFactor(lvlCtx, ct2, lcm/ct2.CorrectionFactor)

	op := lvlCtx.Add
	if !add {
		op = lvlCtx.Sub
	}
	out := e.elementwise(lvlCtx, scaled1, scaled2, op)
	out.CorrectionFactor = lcm
	return out, nil
}

// scaleByFactor multiplies every polynomial of ct by the plain integer
// scalar k (reduced mod each RNS row), used to align two ciphertexts onto a
// common correction factor before combining them.
func (e *Evaluator) scaleByFactor(lvlCtx *ring.PolyContext, ct *rlwe.Ciphertext, k uint64) *rlwe.Ciphertext {
	if k == 1 {
		return ct
	}
	value := make([]*ring.Poly, len(ct.Value))
	for i, p := range ct.Value {
		out := lvlCtx.NewPoly(ring.Coeff)
		for row, q := range lvlCtx.Moduli() {
			bred := lvlCtx.ModulusAt(row).BRedParams
			kRow := k % q
			for col, v := range p.Coeffs[row] {
				out.Coeffs[row][col] = ring.BRed(v, kRow, q, bred)
			}
		}
		value[i] = out
	}
	return &rlwe.Ciphertext{Value: value, Level: ct.Level, CorrectionFactor: ct.CorrectionFactor * k}
}

func (e *Evaluator) elementwise(lvlCtx *ring.PolyContext, ct1, ct2 *rlwe.Ciphertext, op func(p1, p2, out *ring.Poly)) *rlwe.Ciphertext {
	degree := len(ct1.Value)
	if len(ct2.Value) > degree {
		degree = len(ct2.Value)
	}
	value := make([]*ring.Poly, degree)
	for i := range value {
		value[i] = lvlCtx.NewPoly(ring.Coeff)
		switch {
		case i < len(ct1.Value) && i < len(ct2.Value):
			op(ct1.Value[i], ct2.Value[i], value[i])
		case i < len(ct1.Value):
			lvlCtx.Copy(ct1.Value[i], value[i])
		default:
			lvlCtx.Copy(ct2.Value[i], value[i])
		}
	}
	return &rlwe.Ciphertext{Value: value, Level: ct1.Level}
}

// AddPlain returns ct + pt, scaling pt up by Delta*ct.CorrectionFactor
// before adding so the result's correction factor matches ct's.
func (e *Evaluator) AddPlain(ct *rlwe.Ciphertext, pt *Plaintext) (*rlwe.Ciphertext, error) {
	if err := ct.Materialize(e.ctx); err != nil {
		return nil, err
	}
	lvlCtx, err := e.level(ct)
	if err != nil {
		return nil, err
	}
	scaled := e.scalePlaintext(lvlCtx, pt, ct.CorrectionFactor)
	out := ct.CopyNew()
	lvlCtx.Add(out.Value[0], scaled, out.Value[0])
	return out, nil
}

// SubPlain returns ct - pt.
func (e *Evaluator) SubPlain(ct *rlwe.Ciphertext, pt *Plaintext) (*rlwe.Ciphertext, error) {
	if err := ct.Materialize(e.ctx); err != nil {
		return nil, err
	}
	lvlCtx, err := e.level(ct)
	if err != nil {
		return nil, err
	}
	scaled := e.scalePlaintext(lvlCtx, pt, ct.CorrectionFactor)
	out := ct.CopyNew()
	lvlCtx.Sub(out.Value[0], scaled, out.Value[0])
	return out, nil
}

func (e *Evaluator) scalePlaintext(lvlCtx *ring.PolyContext, pt *Plaintext, correctionFactor uint64) *ring.Poly {
	moduli := lvlCtx.Moduli()
	delta := deltaTable(moduli, e.ctx.Params.T())
	out := lvlCtx.NewPoly(ring.Coeff)
	for i, q := range moduli {
		row := out.Coeffs[i]
		bred := lvlCtx.ModulusAt(i).BRedParams
		for k, v := range pt.Coeffs {
			scaledV := ring.BRed(v, correctionFactor%q, q, bred)
			row[k] = ring.BRed(scaledV, delta[i], q, bred)
		}
	}
	return out
}

// MulPlain returns ct * pt, a plaintext-ciphertext product that does not
// grow ciphertext degree: each polynomial of ct is multiplied by pt
// directly in the ciphertext ring (pt lifted to a q_i-wise constant, not
// Delta-scaled, since one side of the product is already plaintext-scale).
func (e *Evaluator) MulPlain(ct *rlwe.Ciphertext, pt *Plaintext) (*rlwe.Ciphertext, error) {
	if err := ct.Materialize(e.ctx); err != nil {
		return nil, err
	}
	lvlCtx, err := e.level(ct)
	if err != nil {
		return nil, err
	}

	ptPoly := lvlCtx.NewPoly(ring.Coeff)
	for i := range lvlCtx.Moduli() {
		q := lvlCtx.ModulusAt(i).Q
		for k, v := range pt.Coeffs {
			ptPoly.Coeffs[i][k] = v % q
		}
	}
	ptMont := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.ToMontgomery(ptPoly, ptMont)
	ptEval := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.NTT(ptMont, ptEval)

	value := make([]*ring.Poly, len(ct.Value))
	for i, p := range ct.Value {
		pMont := lvlCtx.NewPoly(ring.Coeff)
		lvlCtx.ToMontgomery(p, pMont)
		pEval := lvlCtx.NewPoly(ring.Coeff)
		lvlCtx.NTT(pMont, pEval)

		prodEval := lvlCtx.NewPoly(ring.Eval)
		lvlCtx.MulCoeffsMontgomery(pEval, ptEval, prodEval)

		prodCoeffMont := lvlCtx.NewPoly(ring.Eval)
		lvlCtx.INTT(prodEval, prodCoeffMont)
		prodStd := lvlCtx.NewPoly(ring.Coeff)
		lvlCtx.FromMontgomery(prodCoeffMont, prodStd)
		value[i] = prodStd
	}

	return &rlwe.Ciphertext{Value: value, Level: ct.Level, CorrectionFactor: ct.CorrectionFactor}, nil
}

// Mul returns ct1 * ct2, a degree-growing ciphertext-ciphertext product
// computed by exact big-integer negacyclic convolution of the CRT-lifted
// operand coefficients, rescaled by t/Q and reduced back into the RNS
// basis. This is the textbook (pre-RNS-optimized) BFV multiplication
// algorithm: correctness-first, since no RNS basis-extension routine
// (BEHZ/HPS-style) appears anywhere in the retrieved corpus to ground a
// faster version on, and this path is not on any latency-sensitive
// benchmark in scope here.
func (e *Evaluator) Mul(ct1, ct2 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if err := ct1.Materialize(e.ctx); err != nil {
		return nil, err
	}
	if err := ct2.Materialize(e.ctx); err != nil {
		return nil, err
	}
	if ct1.Degree() != 1 || ct2.Degree() != 1 {
		return nil, herrors.New(herrors.InvalidParameter, "Mul requires two degree-1 ciphertexts")
	}
	lvlCtx, err := e.level(ct1)
	if err != nil {
		return nil, err
	}
	moduli := lvlCtx.Moduli()

	a0 := crtReconstructCentered(moduli, ct1.Value[0])
	a1 := crtReconstructCentered(moduli, ct1.Value[1])
	b0 := crtReconstructCentered(moduli, ct2.Value[0])
	b1 := crtReconstructCentered(moduli, ct2.Value[1])

	d0 := negacyclicConvolve(a0, b0)
	d2 := negacyclicConvolve(a1, b1)
	d1a := negacyclicConvolve(a0, b1)
	d1b := negacyclicConvolve(a1, b0)
	d1 := make([]*big.Int, len(d1a))
	for i := range d1 {
		d1[i] = new(big.Int).Add(d1a[i], d1b[i])
	}

	Q := qBig(moduli)
	t := new(big.Int).SetUint64(e.ctx.Params.T())

	rescale := func(raw []*big.Int) *ring.Poly {
		out := lvlCtx.NewPoly(ring.Coeff)
		for k, x := range raw {
			scaled := roundDiv(new(big.Int).Mul(x, t), Q)
			scaled.Mod(scaled, Q)
			for i, q := range moduli {
				out.Coeffs[i][k] = new(big.Int).Mod(scaled, new(big.Int).SetUint64(q)).Uint64()
			}
		}
		return out
	}

	value := []*ring.Poly{rescale(d0), rescale(d1), rescale(d2)}
	cf := (ct1.CorrectionFactor * ct2.CorrectionFactor) % e.ctx.Params.T()
	if cf == 0 {
		cf = e.ctx.Params.T()
	}
	return &rlwe.Ciphertext{Value: value, Level: ct1.Level, CorrectionFactor: cf}, nil
}

func negacyclicConvolve(a, b []*big.Int) []*big.Int {
	N := len(a)
	out := make([]*big.Int, N)
	for k := range out {
		out[k] = big.NewInt(0)
	}
	for i := 0; i < N; i++ {
		if a[i].Sign() == 0 {
			continue
		}
		for j := 0; j < N; j++ {
			if b[j].Sign() == 0 {
				continue
			}
			term := new(big.Int).Mul(a[i], b[j])
			k := i + j
			if k < N {
				out[k].Add(out[k], term)
			} else {
				out[k-N].Sub(out[k-N], term)
			}
		}
	}
	return out
}

// Relinearize folds a degree-2 ciphertext back down to degree 1 using the
// client's relinearization key.
func (e *Evaluator) Relinearize(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if e.ek == nil || e.ek.RelinKey == nil {
		return nil, herrors.New(herrors.MissingGaloisKey, "evaluator has no relinearization key")
	}
	if err := ct.Materialize(e.ctx); err != nil {
		return nil, err
	}
	return rlwe.Relinearize(e.ctx, ct, e.ek.RelinKey)
}

// Rotate cyclically rotates ct's SIMD rows by step slots.
func (e *Evaluator) Rotate(ct *rlwe.Ciphertext, step int) (*rlwe.Ciphertext, error) {
	g := ring.RotatingColumns(step, e.ctx.Params.N())
	return e.applyGalois(ct, g)
}

// SwapRows swaps ct's two SIMD rows.
func (e *Evaluator) SwapRows(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return e.applyGalois(ct, ring.SwappingRows(e.ctx.Params.N()))
}

func (e *Evaluator) applyGalois(ct *rlwe.Ciphertext, g uint64) (*rlwe.Ciphertext, error) {
	if e.ek == nil {
		return nil, herrors.New(herrors.MissingGaloisKey, "evaluator has no evaluation key")
	}
	gk, err := e.ek.GaloisKeyFor(g)
	if err != nil {
		return nil, err
	}
	if err := ct.Materialize(e.ctx); err != nil {
		return nil, err
	}
	return rlwe.ApplyGalois(e.ctx, ct, g, gk)
}

// ApplyGaloisElement applies the raw Galois automorphism x -> x^g to ct,
// key-switched back under the original secret. Exposed (beyond Rotate/
// SwapRows's named steps) for callers like query expansion that need
// specific elements of the form N/2^i + 1.
func (e *Evaluator) ApplyGaloisElement(ct *rlwe.Ciphertext, g uint64) (*rlwe.Ciphertext, error) {
	return e.applyGalois(ct, g)
}

// MulMonomial multiplies every polynomial of ct by x^power (mod x^N+1).
func (e *Evaluator) MulMonomial(ct *rlwe.Ciphertext, power int) (*rlwe.Ciphertext, error) {
	if err := ct.Materialize(e.ctx); err != nil {
		return nil, err
	}
	lvlCtx, err := e.level(ct)
	if err != nil {
		return nil, err
	}
	value := make([]*ring.Poly, len(ct.Value))
	for i, p := range ct.Value {
		out := lvlCtx.NewPoly(ring.Coeff)
		lvlCtx.MulMonomial(p, power, out)
		value[i] = out
	}
	return &rlwe.Ciphertext{Value: value, Level: ct.Level, CorrectionFactor: ct.CorrectionFactor}, nil
}

// ModSwitchDown drops the last RNS modulus from ct, dividing every
// coefficient by that modulus with rounding to the nearest integer.
func (e *Evaluator) ModSwitchDown(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if err := ct.Materialize(e.ctx); err != nil {
		return nil, err
	}
	srcCtx, err := e.level(ct)
	if err != nil {
		return nil, err
	}
	dstCtx, err := srcCtx.Next()
	if err != nil {
		return nil, err
	}

	dstModuli := dstCtx.Moduli()
	lastQ := srcCtx.ModulusAt(srcCtx.Level()).Q
	halfLast := lastQ / 2

	value := make([]*ring.Poly, len(ct.Value))
	for vi, p := range ct.Value {
		lastRow := p.Coeffs[srcCtx.Level()]
		out := dstCtx.NewPoly(ring.Coeff)
		for i, q := range dstModuli {
			row := p.Coeffs[i]
			dst := out.Coeffs[i]
			halfMod := halfLast % q
			for k := range dst {
				// ((p + lastQ/2) - ((p + lastQ/2) mod lastQ)) * lastQ^-1
				// mod q_i, i.e. round(p / lastQ): the BFV rescale for a
				// single dropped modulus.
				lastShifted := (lastRow[k] + halfLast) % lastQ
				diff := (row[k] + halfMod + q - lastShifted%q) % q
				invLast := ring.InverseMod(lastQ%q, q)
				dst[k] = ring.BRed(diff, invLast, q, dstCtx.ModulusAt(i).BRedParams)
			}
		}
		value[vi] = out
	}

	return &rlwe.Ciphertext{Value: value, Level: dstCtx.Level(), CorrectionFactor: ct.CorrectionFactor}, nil
}
