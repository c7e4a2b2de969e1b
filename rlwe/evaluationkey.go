package rlwe

import (
	"math/big"
	"strconv"

	"github.com/heprivacy/hepir/ring"
)

// KeySwitchKey switches a ciphertext polynomial encrypted under one secret
// key to the same polynomial (mod the plaintext scaling) encrypted under
// another. It is a sequence of L seeded degree-1 ciphertexts K_j = (b_j,
// a_j), one per RNS modulus of the context it was generated at, with
// b_j = -(a_j*sOut + e_j) + (Q/q_j)*sIn (mod Q). Both polynomials of every
// K_j are stored in Eval+Montgomery form, ready for direct use by KeySwitch.
type KeySwitchKey struct {
	Keys []*Ciphertext
}

// EvaluationKey bundles every key-switching key a client may need to hand to
// a server evaluating on its behalf: one per supported Galois element, plus
// (when the parameters support degree-2 ciphertexts) the relinearization
// key switching s^2 back to s.
type EvaluationKey struct {
	GaloisKeys map[uint64]*KeySwitchKey
	RelinKey   *KeySwitchKey
}

// GaloisKeyFor looks up the key-switching key for Galois element g, failing
// with herrors.MissingGaloisKey if the client never generated one.
func (ek *EvaluationKey) GaloisKeyFor(g uint64) (*KeySwitchKey, error) {
	ksk, ok := ek.GaloisKeys[g]
	if !ok {
		return nil, errMissingGaloisKey(g)
	}
	return ksk, nil
}

// GenEvaluationKey builds the full evaluation key a client exports to a
// server: one key-switching key per Galois element in elements, plus (when
// the parameters support degree-2 ciphertexts) the relinearization key for
// s^2 -> s.
func GenEvaluationKey(ctx *Context, sk *SecretKey, elements []uint64, seed [32]byte) (*EvaluationKey, error) {
	ek := &EvaluationKey{GaloisKeys: make(map[uint64]*KeySwitchKey, len(elements))}

	ringQ := ctx.RingQ
	for _, g := range elements {
		// sk.Value is already Eval+Montgomery form; ApplyGalois's Eval branch
		// is a pure permutation of evaluation points, which commutes with
		// the fixed Montgomery scaling, so no round trip through Coeff form
		// is needed here.
		rotatedEval := ringQ.NewPoly(ring.Eval)
		ringQ.ApplyGalois(sk.Value, g, rotatedEval)
		rotatedSK := &SecretKey{Value: rotatedEval}

		ksk, err := GenKeySwitchKey(ctx, rotatedSK, sk, seed, galoisLabel(g))
		if err != nil {
			return nil, err
		}
		ek.GaloisKeys[g] = ksk
	}

	if ctx.Params.SupportsEvaluationKey() {
		sk2Eval := ringQ.NewPoly(ring.Eval)
		ringQ.MulCoeffsMontgomery(sk.Value, sk.Value, sk2Eval)
		sk2 := &SecretKey{Value: sk2Eval}

		rlk, err := GenKeySwitchKey(ctx, sk2, sk, seed, "relin")
		if err != nil {
			return nil, err
		}
		ek.RelinKey = rlk
	}

	return ek, nil
}

func galoisLabel(g uint64) string {
	return "galois/" + strconv.FormatUint(g, 10)
}

// GenKeySwitchKey builds a key-switching key from skIn to skOut at ctx's
// full level, seeded from seed. label distinguishes independently-seeded
// key-switching keys generated from the same master seed (e.g. one label
// per Galois element, plus "relin").
func GenKeySwitchKey(ctx *Context, skIn, skOut *SecretKey, seed [32]byte, label string) (*KeySwitchKey, error) {
	ringQ := ctx.RingQ
	L := ringQ.Level() + 1
	moduli := ringQ.Moduli()

	keys := make([]*Ciphertext, L)
	for j := 0; j < L; j++ {
		aSeed := deriveSeed(seed, label+"/a", j)
		eSeed := deriveSeed(seed, label+"/e", j)

		aCoeff := ring.NewUniformSampler(ringQ, aSeed).ReadNew()
		aMont := ringQ.NewPoly(ring.Coeff)
		ringQ.ToMontgomery(aCoeff, aMont)
		aEval := ringQ.NewPoly(ring.Coeff)
		ringQ.NTT(aMont, aEval)

		eCoeff := ring.NewCBDSampler(ringQ, eSeed, ring.StdDev32).ReadNew()
		eMont := ringQ.NewPoly(ring.Coeff)
		ringQ.ToMontgomery(eCoeff, eMont)
		eEval := ringQ.NewPoly(ring.Coeff)
		ringQ.NTT(eMont, eEval)

		scalars := qOverQjModEveryQi(moduli, j)
		skInScaled := ringQ.NewPoly(ring.Eval)
		ringQ.MulScalar(skIn.Value, scalars, skInScaled)

		aTimesOut := ringQ.NewPoly(ring.Eval)
		ringQ.MulCoeffsMontgomery(aEval, skOut.Value, aTimesOut)

		inner := ringQ.NewPoly(ring.Eval)
		ringQ.Add(aTimesOut, eEval, inner)

		b := ringQ.NewPoly(ring.Eval)
		ringQ.Neg(inner, b)
		ringQ.Add(b, skInScaled, b)

		keys[j] = &Ciphertext{
			Value:            []*ring.Poly{b, aEval},
			Level:            ringQ.Level(),
			CorrectionFactor: 1,
		}
	}

	return &KeySwitchKey{Keys: keys}, nil
}

// qOverQjModEveryQi returns, for the RNS basis moduli, the scalar vector
// holding (Q/q_j) mod q_i at index i, where Q is the product of every
// modulus in moduli. Used to scale skIn by the CRT basis element for digit
// j during key-switching-key generation. Computed via exact big-integer
// arithmetic: this runs once per key, not on any per-ciphertext hot path,
// so big.Int's cost is immaterial next to its correctness guarantee for an
// arbitrary-length modulus product.
func qOverQjModEveryQi(moduli []uint64, j int) []uint64 {
	qOverQj := big.NewInt(1)
	for k, q := range moduli {
		if k == j {
			continue
		}
		qOverQj.Mul(qOverQj, new(big.Int).SetUint64(q))
	}

	scalars := make([]uint64, len(moduli))
	for i, qi := range moduli {
		m := new(big.Int).Mod(qOverQj, new(big.Int).SetUint64(qi))
		scalars[i] = m.Uint64()
	}
	return scalars
}
