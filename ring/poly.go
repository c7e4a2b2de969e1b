package ring

import "fmt"

// Format tags whether a polynomial's coefficient array holds raw
// coefficients or NTT (point) evaluations.
type Format int

const (
	// Coeff stores raw polynomial coefficients.
	Coeff Format = iota
	// Eval stores NTT evaluations (point-value form).
	Eval
)

func (f Format) String() string {
	if f == Coeff {
		return "Coeff"
	}
	return "Eval"
}

// Modulus bundles one RNS prime with its precomputed Barrett/Montgomery
// reduction constants and NTT twiddle tables.
type Modulus struct {
	Q          uint64
	BRedParams []uint64
	MRedParams uint64
	// NttPsi/NttPsiInv hold, in bit-reversed storage order, the successive
	// Montgomery-form powers of the 2N-th primitive root (and its inverse)
	// used by the forward/inverse NTT butterfly.
	NttPsi    []uint64
	NttPsiInv []uint64
	// NInv is N^-1 mod Q in Montgomery form, applied once at the end of the
	// inverse NTT.
	NInv uint64
}

// PolyContext is an ordered list of RNS moduli [q0, ..., q_{L-1}] plus
// degree N, forming one rung of the mod-switch ladder. Rather than a linked
// list of per-level contexts, each PolyContext holds an index ("level")
// into a shared chain of sibling contexts, so dropping a modulus is a
// lookup rather than an allocation.
type PolyContext struct {
	n       int
	nthRoot uint64
	moduli  []Modulus
	chain   []*PolyContext // chain[level] has level+1 moduli; shared across the ladder
}

// N returns the ring degree.
func (c *PolyContext) N() int { return c.n }

// NthRoot returns the order of the primitive root the NTT is built on
// (2N for the standard ring).
func (c *PolyContext) NthRoot() uint64 { return c.nthRoot }

// Level returns len(Moduli)-1.
func (c *PolyContext) Level() int { return len(c.moduli) - 1 }

// Moduli returns the RNS moduli values in order.
func (c *PolyContext) Moduli() []uint64 {
	qs := make([]uint64, len(c.moduli))
	for i, m := range c.moduli {
		qs[i] = m.Q
	}
	return qs
}

// ModulusAt returns the i-th RNS modulus descriptor.
func (c *PolyContext) ModulusAt(i int) Modulus { return c.moduli[i] }

// NewPolyContext validates N and Moduli and builds the full mod-switch
// chain. N must be a power of two >= 16; every modulus must be prime,
// distinct, and congruent to 1 mod 2N, the condition under which the
// negacyclic NTT has a primitive 2N-th root to build its twiddle tables on.
func NewPolyContext(N int, moduli []uint64) (*PolyContext, error) {
	if N < 16 || N&(N-1) != 0 {
		return nil, ErrInvalidContext.withMessage("ring degree %d must be a power of two >= 16", N)
	}
	if len(moduli) == 0 {
		return nil, ErrInvalidContext.withMessage("modulus list must be non-empty")
	}

	nthRoot := uint64(2 * N)
	seen := make(map[uint64]bool, len(moduli))
	for _, q := range moduli {
		if seen[q] {
			return nil, ErrInvalidContext.withMessage("duplicate modulus %d", q)
		}
		seen[q] = true
		if !IsPrime(q) {
			return nil, ErrInvalidContext.withMessage("modulus %d is not prime", q)
		}
		if q%nthRoot != 1 {
			return nil, ErrInvalidContext.withMessage("modulus %d is not congruent to 1 mod %d", q, nthRoot)
		}
	}

	chain := make([]*PolyContext, len(moduli))
	for level := range moduli {
		sub := moduli[:level+1]
		descriptors := make([]Modulus, level+1)
		for i, q := range sub {
			descriptors[i] = newModulusDescriptor(q, uint64(N), nthRoot)
		}
		chain[level] = &PolyContext{n: N, nthRoot: nthRoot, moduli: descriptors, chain: chain}
	}

	return chain[len(moduli)-1], nil
}

// newModulusDescriptor computes the Barrett/Montgomery and NTT constants
// for a single NTT-friendly prime q, following lattigo's ring_context.go
// genNTTParams.
func newModulusDescriptor(q, N, nthRoot uint64) Modulus {
	bred := BRedParams(q)
	m := Modulus{Q: q, BRedParams: bred, MRedParams: MRedParams(q)}

	g := primitiveRoot(q)
	power := (q - 1) / nthRoot
	powerInv := (q - 1) - power

	psi := MForm(PowMod(g, power, q, bred), q, bred)
	psiInv := MForm(PowMod(g, powerInv, q, bred), q, bred)

	half := nthRoot / 2
	m.NttPsi = make([]uint64, half)
	m.NttPsiInv = make([]uint64, half)
	m.NttPsi[0] = MForm(1, q, bred)
	m.NttPsiInv[0] = MForm(1, q, bred)

	logHalf := bitLen64(half) - 1
	for j := uint64(1); j < half; j++ {
		prev := bitReverse64(j-1, logHalf)
		next := bitReverse64(j, logHalf)
		m.NttPsi[next] = MRed(m.NttPsi[prev], psi, q, m.MRedParams)
		m.NttPsiInv[next] = MRed(m.NttPsiInv[prev], psiInv, q, m.MRedParams)
	}

	m.NInv = MForm(PowMod(N, q-2, q, bred), q, bred)
	return m
}

// Next returns the context one step down the mod-switch chain (one fewer
// modulus). Returns ErrInvalidContext if already at the bottom.
func (c *PolyContext) Next() (*PolyContext, error) {
	return c.RemoveLastModuli(1)
}

// RemoveLastModuli drops the last k RNS moduli, advancing the chain k
// steps. Fails with ErrInvalidContext if the chain is too short.
func (c *PolyContext) RemoveLastModuli(k int) (*PolyContext, error) {
	level := c.Level() - k
	if level < 0 {
		return nil, ErrInvalidContext.withMessage("cannot remove %d moduli from context at level %d", k, c.Level())
	}
	return c.chain[level], nil
}

// Poly is a polynomial in R_Q, stored as an L x N matrix of residues (one
// row per RNS modulus), tagged with its Format.
type Poly struct {
	Coeffs [][]uint64
	Format Format
}

// NewPoly allocates a zero polynomial at the context's current level.
func (c *PolyContext) NewPoly(f Format) *Poly {
	p := &Poly{Coeffs: make([][]uint64, len(c.moduli)), Format: f}
	for i := range p.Coeffs {
		p.Coeffs[i] = make([]uint64, c.n)
	}
	return p
}

// CopyNew returns a deep copy of p.
func (p *Poly) CopyNew() *Poly {
	out := &Poly{Coeffs: make([][]uint64, len(p.Coeffs)), Format: p.Format}
	for i, row := range p.Coeffs {
		out.Coeffs[i] = append([]uint64(nil), row...)
	}
	return out
}

// Copy copies src into dst in place (same shape required).
func (c *PolyContext) Copy(src, dst *Poly) {
	for i := range src.Coeffs {
		copy(dst.Coeffs[i], src.Coeffs[i])
	}
	dst.Format = src.Format
}

// checkShape panics with a descriptive message if p's shape does not
// match the context.
func (c *PolyContext) checkShape(p *Poly) {
	if len(p.Coeffs) != len(c.moduli) {
		panic(fmt.Sprintf("ring: polynomial has %d RNS rows, context expects %d", len(p.Coeffs), len(c.moduli)))
	}
	for _, row := range p.Coeffs {
		if len(row) != c.n {
			panic(fmt.Sprintf("ring: polynomial row has %d coefficients, context expects %d", len(row), c.n))
		}
	}
}

// Add computes p1+p2 elementwise mod each Qi.
func (c *PolyContext) Add(p1, p2, out *Poly) {
	for i, m := range c.moduli {
		r1, r2, ro := p1.Coeffs[i], p2.Coeffs[i], out.Coeffs[i]
		for j := 0; j < c.n; j++ {
			ro[j] = AddMod(r1[j], r2[j], m.Q)
		}
	}
	out.Format = p1.Format
}

// Sub computes p1-p2 elementwise mod each Qi.
func (c *PolyContext) Sub(p1, p2, out *Poly) {
	for i, m := range c.moduli {
		r1, r2, ro := p1.Coeffs[i], p2.Coeffs[i], out.Coeffs[i]
		for j := 0; j < c.n; j++ {
			ro[j] = SubMod(r1[j], r2[j], m.Q)
		}
	}
	out.Format = p1.Format
}

// Neg computes -p1 elementwise mod each Qi.
func (c *PolyContext) Neg(p1, out *Poly) {
	for i, m := range c.moduli {
		r1, ro := p1.Coeffs[i], out.Coeffs[i]
		for j := 0; j < c.n; j++ {
			if r1[j] == 0 {
				ro[j] = 0
			} else {
				ro[j] = m.Q - r1[j]
			}
		}
	}
	out.Format = p1.Format
}

// MulCoeffsMontgomery computes p1*p2 pointwise (Eval-form multiplication),
// assuming both operands are in the Montgomery domain.
func (c *PolyContext) MulCoeffsMontgomery(p1, p2, out *Poly) {
	for i, m := range c.moduli {
		r1, r2, ro := p1.Coeffs[i], p2.Coeffs[i], out.Coeffs[i]
		for j := 0; j < c.n; j++ {
			ro[j] = MRed(r1[j], r2[j], m.Q, m.MRedParams)
		}
	}
	out.Format = Eval
}

// MulScalar multiplies every coefficient of p1 by the per-modulus scalar
// scalars[i] mod Qi.
func (c *PolyContext) MulScalar(p1 *Poly, scalars []uint64, out *Poly) {
	for i, m := range c.moduli {
		r1, ro := p1.Coeffs[i], out.Coeffs[i]
		for j := 0; j < c.n; j++ {
			ro[j] = BRed(r1[j], scalars[i], m.Q, m.BRedParams)
		}
	}
	out.Format = p1.Format
}

// Reduce ensures every coefficient lies in [0, Qi).
func (c *PolyContext) Reduce(p1, out *Poly) {
	for i, m := range c.moduli {
		r1, ro := p1.Coeffs[i], out.Coeffs[i]
		for j := 0; j < c.n; j++ {
			ro[j] = r1[j] % m.Q
		}
	}
	out.Format = p1.Format
}

// Equal reports whether p1 == p2 after reduction, at the context's level.
func (c *PolyContext) Equal(p1, p2 *Poly) bool {
	for i := range c.moduli {
		if len(p1.Coeffs[i]) != len(p2.Coeffs[i]) {
			return false
		}
	}
	c.Reduce(p1, p1)
	c.Reduce(p2, p2)
	for i := range c.moduli {
		for j := 0; j < c.n; j++ {
			if p1.Coeffs[i][j] != p2.Coeffs[i][j] {
				return false
			}
		}
	}
	return true
}

// Zero sets every coefficient of p to 0.
func (c *PolyContext) Zero(p *Poly) {
	for i := range p.Coeffs {
		for j := range p.Coeffs[i] {
			p.Coeffs[i][j] = 0
		}
	}
}

// IsZero reports whether every coefficient of p is zero.
func (c *PolyContext) IsZero(p *Poly) bool {
	for _, row := range p.Coeffs {
		for _, v := range row {
			if v != 0 {
				return false
			}
		}
	}
	return true
}
