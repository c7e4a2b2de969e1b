package ring

// GaloisGen is the generator of the cyclic subgroup of (Z/2NZ)* used to
// derive column-rotation Galois elements for BFV's SIMD slot structure,
// matching lattigo's bfv.go const GaloisGen uint64 = 5.
const GaloisGen uint64 = 5

// RotatingColumns returns the Galois element implementing a rotation of the
// SIMD row by `step` slots. Negative steps are folded into the equivalent
// positive rotation via N/2-step.
func RotatingColumns(step, N int) uint64 {
	halfN := N / 2
	s := step % halfN
	if s < 0 {
		s += halfN
	}
	twoN := uint64(2 * N)
	return PowMod(GaloisGen, uint64(s), twoN, BRedParams(twoN))
}

// SwappingRows returns the Galois element that swaps the two SIMD rows:
// 2N-1, the automorphism x -> x^-1.
func SwappingRows(N int) uint64 {
	return uint64(2*N - 1)
}

// GaloisElementsForExpand returns the Galois elements {N/2^i + 1} used by
// query expansion, largest first, for i = 0..logN-1 (N+1, N/2+1, ..., 3).
func GaloisElementsForExpand(N int) []uint64 {
	logN := bitLen64(uint64(N)) - 1
	els := make([]uint64, logN)
	for i := 1; i <= logN; i++ {
		els[i-1] = uint64(N>>uint(i-1)) + 1
	}
	return els
}

// ApplyGalois applies the automorphism x -> x^g (mod x^N+1) to p, writing
// the result to out. It dispatches on p.Format so that applying the
// automorphism in Coeff form and applying it in Eval form (after NTT/INTT)
// agree. out must not alias p.
func (c *PolyContext) ApplyGalois(p *Poly, g uint64, out *Poly) {
	if p.Format == Eval {
		c.applyGaloisEval(p, g, out)
		return
	}
	c.applyGaloisCoeff(p, g, out)
}

// applyGaloisCoeff implements the automorphism directly on coefficients:
// the coefficient at position i moves to position i*g mod 2N, negated when
// the image falls in [N, 2N) (the negacyclic wraparound x^N = -1).
func (c *PolyContext) applyGaloisCoeff(p *Poly, g uint64, out *Poly) {
	N := uint64(c.n)
	twoN := 2 * N
	for i := uint64(0); i < N; i++ {
		image := (i * g) % twoN
		dst := image % N
		negate := image >= N
		for row, m := range c.moduli {
			v := p.Coeffs[row][i]
			if negate && v != 0 {
				v = m.Q - v
			}
			out.Coeffs[row][dst] = v
		}
	}
	out.Format = Coeff
}

// AutomorphismNTTIndex computes the lookup table mapping output position j
// to input position index[j] for the automorphism x^i -> x^{i*g} evaluated
// in NTT (point-value) form, following lattigo's ring/automorphism.go.
func AutomorphismNTTIndex(N int, nthRoot, g uint64) []uint64 {
	mask := nthRoot - 1
	logNthRoot := bitLen64(nthRoot-1) - 1

	index := make([]uint64, N)
	for i := 0; i < N; i++ {
		tmp1 := 2*bitReverse64(uint64(i), logNthRoot) + 1
		tmp2 := (((g * tmp1) & mask) - 1) >> 1
		index[i] = bitReverse64(tmp2, logNthRoot)
	}
	return index
}

// applyGaloisEval applies the automorphism to a polynomial already in Eval
// (NTT) form: in point-value form the automorphism is just a permutation of
// which 2N-th root of unity each slot evaluates at.
func (c *PolyContext) applyGaloisEval(p *Poly, g uint64, out *Poly) {
	index := AutomorphismNTTIndex(c.n, c.nthRoot, g)
	c.applyGaloisEvalWithIndex(p, index, out)
}

// applyGaloisEvalWithIndex applies a precomputed permutation table, as built
// by AutomorphismNTTIndex. Its only caller, applyGaloisEval, builds a fresh
// table on every call.
func (c *PolyContext) applyGaloisEvalWithIndex(p *Poly, index []uint64, out *Poly) {
	for row := range c.moduli {
		src := p.Coeffs[row]
		dst := out.Coeffs[row]
		for j := 0; j < c.n; j++ {
			dst[j] = src[index[j]]
		}
	}
	out.Format = Eval
}
