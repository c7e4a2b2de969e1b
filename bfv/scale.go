package bfv

import (
	"math/big"

	"github.com/heprivacy/hepir/ring"
	"github.com/heprivacy/hepir/rlwe"
)

// qBig returns the full ciphertext modulus Q = prod(q_i) as a big.Int, for
// the exact (non-RNS) arithmetic encryption and decryption need to compute
// the Delta = floor(Q/t) scaling factor and to round the decrypted
// plaintext.
func qBig(moduli []uint64) *big.Int {
	Q := big.NewInt(1)
	for _, q := range moduli {
		Q.Mul(Q, new(big.Int).SetUint64(q))
	}
	return Q
}

// deltaTable returns, for each RNS row, floor(Q/t) mod q_i: the per-row
// scalar that scales an encoded plaintext coefficient (in [0, t)) up into
// the ciphertext's noise budget — BFV's "Delta" scaling.
func deltaTable(moduli []uint64, t uint64) []uint64 {
	Q := qBig(moduli)
	delta := new(big.Int).Quo(Q, new(big.Int).SetUint64(t))
	table := make([]uint64, len(moduli))
	for i, qi := range moduli {
		table[i] = new(big.Int).Mod(delta, new(big.Int).SetUint64(qi)).Uint64()
	}
	return table
}

// crtReconstructCentered reconstructs, for every coefficient of p (Coeff
// form, standard domain), the exact integer value in (-Q/2, Q/2] it
// represents in the symmetric RNS range. Used to recover a decrypted
// ciphertext's noisy Delta*m term before scaling it back down to the
// plaintext modulus. Exact big-integer CRT reconstruction is used rather
// than an RNS-native fast-base-conversion routine: this runs once per
// decryption or noise-budget measurement (and once per operand polynomial
// in ciphertext-ciphertext multiplication), never on the hot NTT path, and no RNS basis-extension
// library appears anywhere in the retrieved corpus to ground a faster
// version on.
func crtReconstructCentered(moduli []uint64, p *ring.Poly) []*big.Int {
	N := len(p.Coeffs[0])
	Q := qBig(moduli)
	halfQ := new(big.Int).Rsh(Q, 1)

	qBigs := make([]*big.Int, len(moduli))
	qOverQi := make([]*big.Int, len(moduli))
	inv := make([]*big.Int, len(moduli))
	for i, qi := range moduli {
		qBigs[i] = new(big.Int).SetUint64(qi)
		qOverQi[i] = new(big.Int).Quo(Q, qBigs[i])
		inv[i] = new(big.Int).ModInverse(new(big.Int).Mod(qOverQi[i], qBigs[i]), qBigs[i])
	}

	out := make([]*big.Int, N)
	for k := 0; k < N; k++ {
		x := big.NewInt(0)
		term := new(big.Int)
		for i := range moduli {
			term.SetUint64(p.Coeffs[i][k])
			term.Mul(term, inv[i])
			term.Mod(term, qBigs[i])
			term.Mul(term, qOverQi[i])
			x.Add(x, term)
		}
		x.Mod(x, Q)
		if x.Cmp(halfQ) > 0 {
			x.Sub(x, Q)
		}
		out[k] = x
	}
	return out
}

// roundDiv rounds num/den to the nearest integer, ties away from zero, for
// den > 0. Used wherever BFV scales a value by t/Q or Q/t and must round
// rather than truncate.
func roundDiv(num, den *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	doubled := new(big.Int).Lsh(new(big.Int).Abs(r), 1)
	if doubled.Cmp(den) >= 0 {
		if num.Sign() >= 0 {
			q.Add(q, big.NewInt(1))
		} else {
			q.Sub(q, big.NewInt(1))
		}
	}
	return q
}

// scaleDownToPlaintext rescales a decrypted (but not yet modulus-reduced)
// noisy message polynomial from the ciphertext ring down to the plaintext
// modulus t, dividing out the ciphertext's correction factor: BFV
// decryption's final step, round(t*x/Q) / correctionFactor mod t.
func scaleDownToPlaintext(moduli []uint64, acc *ring.Poly, t, correctionFactor uint64) []uint64 {
	centered := crtReconstructCentered(moduli, acc)
	tBig := new(big.Int).SetUint64(t)
	Q := qBig(moduli)

	var invCF *big.Int
	if correctionFactor != 1 {
		invCF = new(big.Int).ModInverse(new(big.Int).SetUint64(correctionFactor%t), tBig)
	}

	out := make([]uint64, len(centered))
	for k, x := range centered {
		scaled := roundDiv(new(big.Int).Mul(x, tBig), Q)
		scaled.Mod(scaled, tBig)
		if invCF != nil {
			scaled.Mul(scaled, invCF)
			scaled.Mod(scaled, tBig)
		}
		out[k] = scaled.Uint64()
	}
	return out
}

// correctionFactorForCrossMultiply returns the cross-multiplied correction
// factor of ct+ct or ct-ct where the two operands were scaled by different
// correction factors: the least common multiple of the two, so that each
// side can be scaled up to match without fractional factors (Open Question
// decision: LCM rather than always-multiply, to keep the factor from
// growing unnecessarily across a long chain of plaintext operations).
func correctionFactorForCrossMultiply(a, b uint64) uint64 {
	if a == b {
		return a
	}
	return a / gcdUint64(a, b) * b
}

func gcdUint64(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func ctxModuli(ctx *rlwe.Context, level int) ([]uint64, error) {
	lvlCtx, err := ctx.LevelContext(level)
	if err != nil {
		return nil, err
	}
	return lvlCtx.Moduli(), nil
}
