package ring

// ntt applies the in-place forward negacyclic NTT (Cooley-Tukey,
// decimation-in-time, natural order in, bit-reversed order in the twiddle
// table so the output lands in natural order), following the structure of
// lattigo's ring_context.go genNTTParams / ring_ntt.go. Operates on
// Montgomery-form coefficients; output remains in the Montgomery domain.
func nttCT(coeffs []uint64, N int, q, mredParams uint64, psi []uint64) {
	t := N
	for m := 1; m < N; m <<= 1 {
		t >>= 1
		for i := 0; i < m; i++ {
			j1 := 2 * i * t
			j2 := j1 + t
			s := psi[m+i]
			for j := j1; j < j2; j++ {
				u := coeffs[j]
				v := MRed(coeffs[j+t], s, q, mredParams)
				coeffs[j] = CRed(u+v, q)
				coeffs[j+t] = CRed(u+q-v, q)
			}
		}
	}
}

// inttGS applies the in-place inverse negacyclic NTT (Gentleman-Sande,
// decimation-in-frequency), followed by a final scaling by N^-1.
func inttGS(coeffs []uint64, N int, q, mredParams, nInv uint64, psiInv []uint64) {
	t := 1
	for m := N; m > 1; m >>= 1 {
		j1 := 0
		h := m >> 1
		for i := 0; i < h; i++ {
			j2 := j1 + t
			s := psiInv[h+i]
			for j := j1; j < j2; j++ {
				u := coeffs[j]
				v := coeffs[j+t]
				coeffs[j] = CRed(u+v, q)
				coeffs[j+t] = MRed(CRed(u+q-v, q), s, q, mredParams)
			}
			j1 += 2 * t
		}
		t <<= 1
	}
	for j := 0; j < N; j++ {
		coeffs[j] = MRed(coeffs[j], nInv, q, mredParams)
	}
}

// NTT converts p from Coeff to Eval form in place (per RNS row). Input
// coefficients must already be in Montgomery form (see ToMontgomery);
// NTT/INTT are defined purely on the Montgomery domain, since the
// Psi/PsiInv tables are themselves stored in Montgomery form.
func (c *PolyContext) NTT(p, out *Poly) {
	c.checkShape(p)
	for i, m := range c.moduli {
		if &p.Coeffs[i] != &out.Coeffs[i] {
			copy(out.Coeffs[i], p.Coeffs[i])
		}
		nttCT(out.Coeffs[i], c.n, m.Q, m.MRedParams, m.NttPsi)
	}
	out.Format = Eval
}

// INTT converts p from Eval to Coeff form in place (per RNS row). Output
// remains in the Montgomery domain; use FromMontgomery to recover standard
// residues.
func (c *PolyContext) INTT(p, out *Poly) {
	c.checkShape(p)
	for i, m := range c.moduli {
		if &p.Coeffs[i] != &out.Coeffs[i] {
			copy(out.Coeffs[i], p.Coeffs[i])
		}
		inttGS(out.Coeffs[i], c.n, m.Q, m.MRedParams, m.NInv, m.NttPsiInv)
	}
	out.Format = Coeff
}

// ToMontgomery switches every coefficient of p into the Montgomery domain.
func (c *PolyContext) ToMontgomery(p, out *Poly) {
	for i, m := range c.moduli {
		r, ro := p.Coeffs[i], out.Coeffs[i]
		for j := 0; j < c.n; j++ {
			ro[j] = MForm(r[j], m.Q, m.BRedParams)
		}
	}
	out.Format = p.Format
}

// FromMontgomery switches every coefficient of p out of the Montgomery
// domain.
func (c *PolyContext) FromMontgomery(p, out *Poly) {
	for i, m := range c.moduli {
		r, ro := p.Coeffs[i], out.Coeffs[i]
		for j := 0; j < c.n; j++ {
			ro[j] = InvMForm(r[j], m.Q, m.MRedParams)
		}
	}
	out.Format = p.Format
}
