package ring

// MulMonomial multiplies p by x^power (mod x^N+1); power may be negative.
// Equivalent to a cyclic coefficient shift by power mod 2N, negating any
// coefficient that crosses the x^N = -1 boundary. Grounded on the same
// automorphism-by-index-permutation style as ApplyGalois, specialized to
// the single-monomial case query expansion needs to re-align a ciphertext's
// coefficients after a Galois fold.
func (c *PolyContext) MulMonomial(p *Poly, power int, out *Poly) {
	N := c.n
	twoN := 2 * N
	k := ((power % twoN) + twoN) % twoN

	for row, m := range c.moduli {
		src := p.Coeffs[row]
		dst := out.Coeffs[row]
		for i := 0; i < N; i++ {
			j := (i + k) % twoN
			sign := false
			if j >= N {
				j -= N
				sign = true
			}
			v := src[i]
			if sign && v != 0 {
				v = m.Q - v
			}
			dst[j] = v
		}
	}
	out.Format = p.Format
}
