package pir

import (
	"github.com/heprivacy/hepir/bfv"
	"github.com/heprivacy/hepir/rlwe"
)

// ExpandQuery turns a single compressed ciphertext (one-hot indicators
// packed across its low `count` coefficients, pre-scaled by 2^-rounds mod t,
// per Client.Query) into `count` separate ciphertexts, the i-th encrypting
// the constant polynomial equal to the compressed ciphertext's i-th
// coefficient. Implements the recursive halving/folding obliviousExpand
// algorithm: round i (i = 0, 1, ...) applies the Galois automorphism
// x -> x^(N/2^i + 1), and reconstructs two halves (one directly, one from a
// sign-flipped, monomial-shifted difference) so that after
// rounds = ceil(log2 count) rounds every original coefficient has been
// isolated into its own ciphertext's constant term, multiplied by 2^rounds.
func ExpandQuery(ctx *rlwe.Context, evaluator *bfv.Evaluator, ct *rlwe.Ciphertext, count int) ([]*rlwe.Ciphertext, error) {
	N := ctx.Params.N()
	rounds := 0
	for (1 << uint(rounds)) < count {
		rounds++
	}

	results := []*rlwe.Ciphertext{ct}
	for i := 0; i < rounds; i++ {
		galEl := uint64(N>>uint(i)) + 1
		next := make([]*rlwe.Ciphertext, 0, len(results)*2)

		for _, c := range results {
			rot, err := evaluator.ApplyGaloisElement(c, galEl)
			if err != nil {
				return nil, err
			}
			sum, err := evaluator.Add(c, rot)
			if err != nil {
				return nil, err
			}
			diff, err := evaluator.Sub(c, rot)
			if err != nil {
				return nil, err
			}
			shifted, err := evaluator.MulMonomial(diff, -(1 << uint(i)))
			if err != nil {
				return nil, err
			}
			next = append(next, sum, shifted)
		}
		results = next
	}

	// The halving leaves coefficient k at position bitreverse(k, rounds).
	out := make([]*rlwe.Ciphertext, count)
	for i := range out {
		rev := 0
		for b := 0; b < rounds; b++ {
			rev |= ((i >> uint(b)) & 1) << uint(rounds-1-b)
		}
		out[i] = results[rev]
	}
	return out, nil
}
