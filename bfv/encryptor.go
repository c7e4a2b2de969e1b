package bfv

import (
	"github.com/heprivacy/hepir/ring"
	"github.com/heprivacy/hepir/rlwe"
)

// Encryptor produces secret-key BFV ciphertexts: c0 = -(a*s + e) + Delta*m,
// c1 = a, with a always generated from a fresh seed so the ciphertext ships
// seeded by default.
type Encryptor struct {
	ctx   *rlwe.Context
	sk    *rlwe.SecretKey
	delta []uint64 // per-RNS-row floor(Q/t) mod q_i, at full level
}

// NewEncryptor builds an Encryptor bound to sk.
func NewEncryptor(ctx *rlwe.Context, sk *rlwe.SecretKey) *Encryptor {
	return &Encryptor{
		ctx:   ctx,
		sk:    sk,
		delta: deltaTable(ctx.RingQ.Moduli(), ctx.Params.T()),
	}
}

// EncryptNew encrypts pt into a fresh seeded ciphertext at full level with
// correction factor 1.
func (enc *Encryptor) EncryptNew(pt *Plaintext) (*rlwe.Ciphertext, error) {
	seed, err := rlwe.NewSeed()
	if err != nil {
		return nil, err
	}
	return enc.encryptWithSeed(pt, seed)
}

func (enc *Encryptor) encryptWithSeed(pt *Plaintext, seed [32]byte) (*rlwe.Ciphertext, error) {
	ringQ := enc.ctx.RingQ

	aCoeff := ring.NewUniformSampler(ringQ, seed).ReadNew()
	aMont := ringQ.NewPoly(ring.Coeff)
	ringQ.ToMontgomery(aCoeff, aMont)
	aEval := ringQ.NewPoly(ring.Coeff)
	ringQ.NTT(aMont, aEval)

	eSeed := deriveSeed(seed, "error")
	eCoeff := ring.NewCBDSampler(ringQ, eSeed, ring.StdDev32).ReadNew()
	eMont := ringQ.NewPoly(ring.Coeff)
	ringQ.ToMontgomery(eCoeff, eMont)
	eEval := ringQ.NewPoly(ring.Coeff)
	ringQ.NTT(eMont, eEval)

	product := ringQ.NewPoly(ring.Eval)
	ringQ.MulCoeffsMontgomery(aEval, enc.sk.Value, product)
	inner := ringQ.NewPoly(ring.Eval)
	ringQ.Add(product, eEval, inner)
	negInner := ringQ.NewPoly(ring.Eval)
	ringQ.Neg(inner, negInner)

	negInnerCoeffMont := ringQ.NewPoly(ring.Eval)
	ringQ.INTT(negInner, negInnerCoeffMont)
	negInnerStd := ringQ.NewPoly(ring.Coeff)
	ringQ.FromMontgomery(negInnerCoeffMont, negInnerStd)

	deltaM := ringQ.NewPoly(ring.Coeff)
	for i, q := range ringQ.Moduli() {
		row := deltaM.Coeffs[i]
		for k, v := range pt.Coeffs {
			row[k] = ring.BRed(v, enc.delta[i], q, ringQ.ModulusAt(i).BRedParams)
		}
	}

	c0 := ringQ.NewPoly(ring.Coeff)
	ringQ.Add(negInnerStd, deltaM, c0)

	seedCopy := seed
	return &rlwe.Ciphertext{
		Value:            []*ring.Poly{c0, aCoeff},
		Level:            ringQ.Level(),
		CorrectionFactor: 1,
		Seed:             &seedCopy,
	}, nil
}
