package bfv

import (
	"github.com/heprivacy/hepir/ring"
	"github.com/heprivacy/hepir/rlwe"
)

// Decryptor recovers the plaintext underlying a ciphertext given the secret
// key it was encrypted under.
type Decryptor struct {
	ctx *rlwe.Context
	sk  *rlwe.SecretKey
}

// NewDecryptor builds a Decryptor bound to sk.
func NewDecryptor(ctx *rlwe.Context, sk *rlwe.SecretKey) *Decryptor {
	return &Decryptor{ctx: ctx, sk: sk}
}

// Decrypt materializes ct (if seeded) and recovers its plaintext, computing
// m' = sum_i c_i * s^i (mod Q) then rescaling round(t*m'/Q) and dividing
// out ct's correction factor.
func (dec *Decryptor) Decrypt(ct *rlwe.Ciphertext) (*Plaintext, error) {
	if err := ct.Materialize(dec.ctx); err != nil {
		return nil, err
	}
	lvlCtx, err := dec.ctx.LevelContext(ct.Level)
	if err != nil {
		return nil, err
	}

	c0Mont := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.ToMontgomery(ct.Value[0], c0Mont)
	acc := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.NTT(c0Mont, acc)

	sPower := dec.sk.Value
	for i := 1; i < len(ct.Value); i++ {
		ciMont := lvlCtx.NewPoly(ring.Coeff)
		lvlCtx.ToMontgomery(ct.Value[i], ciMont)
		ciEval := lvlCtx.NewPoly(ring.Coeff)
		lvlCtx.NTT(ciMont, ciEval)

		term := lvlCtx.NewPoly(ring.Eval)
		lvlCtx.MulCoeffsMontgomery(ciEval, sPower, term)
		lvlCtx.Add(acc, term, acc)

		if i+1 < len(ct.Value) {
			next := lvlCtx.NewPoly(ring.Eval)
			lvlCtx.MulCoeffsMontgomery(sPower, dec.sk.Value, next)
			sPower = next
		}
	}

	accCoeffMont := lvlCtx.NewPoly(ring.Eval)
	lvlCtx.INTT(acc, accCoeffMont)
	accStd := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.FromMontgomery(accCoeffMont, accStd)

	values := scaleDownToPlaintext(lvlCtx.Moduli(), accStd, dec.ctx.Params.T(), ct.CorrectionFactor)
	return &Plaintext{Coeffs: values}, nil
}

// NoiseBudget returns the remaining noise budget of ct in bits: log2(Q) -
// log2(2 * ||noise||), where ||noise|| is read off the centered CRT
// reconstruction of the decrypted (but unscaled) message term. A
// transparent ciphertext carries no secret-dependent term at all, so the
// notion of remaining budget is meaningless; reported as -Inf rather than
// panicking on a log2(0) or claiming an infinite safety margin it does not
// have.
func (dec *Decryptor) NoiseBudget(ct *rlwe.Ciphertext) (float64, error) {
	transparent, err := ct.IsTransparent(dec.ctx)
	if err != nil {
		return 0, err
	}
	if transparent {
		return negInf(), nil
	}

	lvlCtx, err := dec.ctx.LevelContext(ct.Level)
	if err != nil {
		return 0, err
	}

	pt, err := dec.Decrypt(ct)
	if err != nil {
		return 0, err
	}
	_ = pt

	// Recompute the noise term directly: m' - Delta*correctionFactor*m,
	// centered, to measure its magnitude against Q.
	c0Mont := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.ToMontgomery(ct.Value[0], c0Mont)
	acc := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.NTT(c0Mont, acc)

	sPower := dec.sk.Value
	for i := 1; i < len(ct.Value); i++ {
		ciMont := lvlCtx.NewPoly(ring.Coeff)
		lvlCtx.ToMontgomery(ct.Value[i], ciMont)
		ciEval := lvlCtx.NewPoly(ring.Coeff)
		lvlCtx.NTT(ciMont, ciEval)
		term := lvlCtx.NewPoly(ring.Eval)
		lvlCtx.MulCoeffsMontgomery(ciEval, sPower, term)
		lvlCtx.Add(acc, term, acc)
		if i+1 < len(ct.Value) {
			next := lvlCtx.NewPoly(ring.Eval)
			lvlCtx.MulCoeffsMontgomery(sPower, dec.sk.Value, next)
			sPower = next
		}
	}
	accCoeffMont := lvlCtx.NewPoly(ring.Eval)
	lvlCtx.INTT(acc, accCoeffMont)
	accStd := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.FromMontgomery(accCoeffMont, accStd)

	moduli := lvlCtx.Moduli()
	delta := deltaTable(moduli, dec.ctx.Params.T())
	deltaM := lvlCtx.NewPoly(ring.Coeff)
	for i, q := range moduli {
		row := deltaM.Coeffs[i]
		for k, v := range pt.Coeffs {
			scaled := v * (ct.CorrectionFactor % q) % q
			row[k] = ring.BRed(scaled, delta[i], q, lvlCtx.ModulusAt(i).BRedParams)
		}
	}

	noise := lvlCtx.NewPoly(ring.Coeff)
	lvlCtx.Sub(accStd, deltaM, noise)
	centered := crtReconstructCentered(moduli, noise)

	maxAbs := big0()
	for _, v := range centered {
		av := absBig(v)
		if av.Cmp(maxAbs) > 0 {
			maxAbs = av
		}
	}
	if maxAbs.Sign() == 0 {
		return posInf(), nil
	}

	logQ := bitLenBig(qBig(moduli))
	logNoise := bitLenBig(maxAbs)
	return float64(logQ - logNoise - 1), nil
}
