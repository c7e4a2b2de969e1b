package rlwe

import "github.com/heprivacy/hepir/ring"

// KeySwitch transforms (c0, c1), a degree-1 ciphertext polynomial pair
// encrypted under the key-switching key's source secret, into a pair
// encrypted under its destination secret: (c0, c1) -> (c0 + sum_j
// digit_j*b_j, sum_j digit_j*a_j), where digit_j is c1 decomposed onto RNS
// basis element j: the generic key-switch gadget underlying both
// relinearization and every Galois rotation.
func KeySwitch(ctx *Context, c0, c1 *ring.Poly, ksk *KeySwitchKey) (*ring.Poly, *ring.Poly, error) {
	lvlCtx, err := ctx.LevelContext(ksk0Level(ksk))
	if err != nil {
		return nil, nil, err
	}

	outB := lvlCtx.NewPoly(ring.Eval)
	outA := lvlCtx.NewPoly(ring.Eval)

	tmpEval := lvlCtx.NewPoly(ring.Eval)
	digitMont := lvlCtx.NewPoly(ring.Coeff)
	digitEval := lvlCtx.NewPoly(ring.Coeff)

	for j, kj := range ksk.Keys {
		decomposeDigit(lvlCtx, c1, j, digitMont)
		lvlCtx.NTT(digitMont, digitEval)

		lvlCtx.MulCoeffsMontgomery(digitEval, kj.Value[0], tmpEval)
		lvlCtx.Add(outB, tmpEval, outB)

		lvlCtx.MulCoeffsMontgomery(digitEval, kj.Value[1], tmpEval)
		lvlCtx.Add(outA, tmpEval, outA)
	}

	outBCoeff := lvlCtx.NewPoly(ring.Eval)
	lvlCtx.INTT(outB, outBCoeff)
	outBStd := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.FromMontgomery(outBCoeff, outBStd)

	outACoeff := lvlCtx.NewPoly(ring.Eval)
	lvlCtx.INTT(outA, outACoeff)
	outAStd := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.FromMontgomery(outACoeff, outAStd)

	newC0 := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.Add(c0, outBStd, newC0)

	return newC0, outAStd, nil
}

// ksk0Level returns the level a key-switching key was generated at, read off
// the RNS row count of its first key's b polynomial.
func ksk0Level(ksk *KeySwitchKey) int {
	return ksk.Keys[0].Level
}

// decomposeDigit extracts RNS basis digit j from c (standard, non-Montgomery
// Coeff form): row j becomes c's residue mod q_j times (Q/q_j)^-1 mod q_j,
// which pairs with the (Q/q_j)*sIn term of key j, and every other row i is
// the same integer value reduced mod q_i. Since a single RNS residue at q_j
// is itself an exact integer below q_j (q_j fits in one machine word),
// reducing it mod every other q_i needs no CRT reconstruction, only a
// per-row division — the standard HPS-style RNS key-switching digit
// decomposition without an auxiliary special modulus. out is left in
// Montgomery form, ready for NTT and MulCoeffsMontgomery.
func decomposeDigit(ctx *ring.PolyContext, c *ring.Poly, j int, out *ring.Poly) {
	mj := ctx.ModulusAt(j)
	scale := ring.InverseMod(qOverQjModEveryQi(ctx.Moduli(), j)[j], mj.Q)
	src := out.Coeffs[j]
	for k, v := range c.Coeffs[j] {
		src[k] = ring.MulMod(v, scale, mj.Q, mj.BRedParams)
	}
	for i := range out.Coeffs {
		dst := out.Coeffs[i]
		if i == j {
			continue
		}
		qi := ctx.ModulusAt(i).Q
		for k, v := range src {
			dst[k] = v % qi
		}
	}
	ctx.ToMontgomery(out, out)
	out.Format = ring.Coeff
}

// Relinearize folds a degree-2 ciphertext's c2 term back into (c0, c1) using
// rlk, the key-switching key from s^2 to s.
func Relinearize(ctx *Context, ct *Ciphertext, rlk *KeySwitchKey) (*Ciphertext, error) {
	if ct.Degree() != 2 {
		return nil, errNotRelinearizable(ct.Degree())
	}
	b, a, err := KeySwitch(ctx, ct.Value[0], ct.Value[2], rlk)
	if err != nil {
		return nil, err
	}
	lvlCtx, err := ctx.LevelContext(ct.Level)
	if err != nil {
		return nil, err
	}
	newC1 := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.Add(ct.Value[1], a, newC1)
	return &Ciphertext{
		Value:            []*ring.Poly{b, newC1},
		Level:            ct.Level,
		CorrectionFactor: ct.CorrectionFactor,
	}, nil
}

// ApplyGalois applies the automorphism x -> x^g to ct and key-switches the
// result back under the original secret via gk: rotations and row swaps are
// both expressed as a Galois automorphism followed by a key switch.
func ApplyGalois(ctx *Context, ct *Ciphertext, g uint64, gk *KeySwitchKey) (*Ciphertext, error) {
	lvlCtx, err := ctx.LevelContext(ct.Level)
	if err != nil {
		return nil, err
	}

	rotated := make([]*ring.Poly, len(ct.Value))
	for i, p := range ct.Value {
		rotCoeff := lvlCtx.NewPoly(ring.Coeff)
		lvlCtx.ApplyGalois(p, g, rotCoeff)
		rotated[i] = rotCoeff
	}

	if len(rotated) != 2 {
		return nil, errGaloisDegree(len(rotated))
	}

	b, a, err := KeySwitch(ctx, rotated[0], rotated[1], gk)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{
		Value:            []*ring.Poly{b, a},
		Level:            ct.Level,
		CorrectionFactor: ct.CorrectionFactor,
	}, nil
}
