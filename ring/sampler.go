package ring

import "encoding/binary"

// UniformSampler draws polynomials with coefficients uniform on [0, Qi) per
// RNS modulus, via rejection sampling against a keyed DRBG. Bit-exact and
// deterministic for a given seed, so two parties (or a known-answer test)
// can pin an exact polynomial at an arbitrary draw index without replaying
// every earlier draw — see Seek.
type UniformSampler struct {
	ctx  *PolyContext
	drbg *DRBG
}

// NewUniformSampler constructs a sampler over ctx, seeded deterministically.
func NewUniformSampler(ctx *PolyContext, seed [32]byte) *UniformSampler {
	return &UniformSampler{ctx: ctx, drbg: NewDRBG(seed)}
}

// Read draws a fresh uniform polynomial into p (Coeff form).
func (s *UniformSampler) Read(p *Poly) {
	var buf [8]byte
	for row, m := range s.ctx.moduli {
		mask := (uint64(1) << bitLen64(m.Q)) - 1
		dst := p.Coeffs[row]
		for i := 0; i < s.ctx.n; i++ {
			for {
				s.drbg.Read(buf[:])
				v := binary.BigEndian.Uint64(buf[:]) & mask
				if v < m.Q {
					dst[i] = v
					break
				}
			}
		}
	}
	p.Format = Coeff
}

// ReadNew draws a fresh uniform polynomial.
func (s *UniformSampler) ReadNew() *Poly {
	p := s.ctx.NewPoly(Coeff)
	s.Read(p)
	return p
}

// Seek repositions the sampler's DRBG to the given block counter, enabling
// direct access to, e.g., the 1001st polynomial without drawing the
// preceding 1000.
func (s *UniformSampler) Seek(blockCounter uint64) {
	s.drbg.Seek(blockCounter)
}

// TernarySampler draws polynomials with coefficients in {-1, 0, 1}
// (balanced representation, cast identically to every RNS modulus), each
// with probability 1/3.
type TernarySampler struct {
	ctx  *PolyContext
	drbg *DRBG
}

// NewTernarySampler constructs a ternary sampler over ctx.
func NewTernarySampler(ctx *PolyContext, seed [32]byte) *TernarySampler {
	return &TernarySampler{ctx: ctx, drbg: NewDRBG(seed)}
}

// Read draws a fresh ternary polynomial into p (Coeff form). Secret-key
// generation relies on this sampler; it performs no data-dependent
// branching on previously drawn values.
func (s *TernarySampler) Read(p *Poly) {
	N := s.ctx.n
	signs := make([]int8, N)

	// Two random bits per coefficient, read as a value in {0, 1, 2, 3}:
	// 0, 1 and 2 give 0, +1 and -1, and 3 is rejected, which keeps the three
	// outcomes equiprobable.
	buf := make([]byte, (N+3)/4)
	assigned := make([]bool, N)
	remaining := N
	for remaining > 0 {
		s.drbg.Read(buf)
		for i := 0; i < N; i++ {
			if assigned[i] {
				continue
			}
			bitPair := (buf[i/4] >> uint((i%4)*2)) & 0x3
			switch bitPair {
			case 0:
				signs[i] = 0
			case 1:
				signs[i] = 1
			case 2:
				signs[i] = -1
			default:
				continue
			}
			assigned[i] = true
			remaining--
		}
		// Re-draw only the unassigned slots by looping; simplicity over
		// micro-optimization here (rejection probability 1/4 per slot).
	}

	for row, m := range s.ctx.moduli {
		dst := p.Coeffs[row]
		for i := 0; i < N; i++ {
			switch signs[i] {
			case 0:
				dst[i] = 0
			case 1:
				dst[i] = 1
			default:
				dst[i] = m.Q - 1
			}
		}
	}
	p.Format = Coeff
}

// ReadNew draws a fresh ternary polynomial.
func (s *TernarySampler) ReadNew() *Poly {
	p := s.ctx.NewPoly(Coeff)
	s.Read(p)
	return p
}

// CBDSampler draws polynomials from the centered binomial distribution
// with standard deviation sigma (default 3.2, see StdDev32), used to
// sample encryption/key-switching error terms.
type CBDSampler struct {
	ctx   *PolyContext
	drbg  *DRBG
	pairs int // k = 2*sigma^2 fair coin pairs per coefficient
}

// StdDev32 is the default error standard deviation.
const StdDev32 = 3.2

// NewCBDSampler constructs a centered-binomial sampler with the given
// standard deviation.
func NewCBDSampler(ctx *PolyContext, seed [32]byte, sigma float64) *CBDSampler {
	k := int(2*sigma*sigma + 0.5)
	if k < 1 {
		k = 1
	}
	return &CBDSampler{ctx: ctx, drbg: NewDRBG(seed), pairs: k}
}

// Read draws a fresh centered-binomial polynomial into p (Coeff form): each
// coefficient is Sum(b_i - b'_i) over k fair coin pairs.
func (s *CBDSampler) Read(p *Poly) {
	N := s.ctx.n
	values := make([]int64, N)

	bytesPerCoeff := (2*s.pairs + 7) / 8
	buf := make([]byte, bytesPerCoeff)
	for i := 0; i < N; i++ {
		s.drbg.Read(buf)
		var acc int64
		for b := 0; b < s.pairs; b++ {
			byteIdx := (2 * b) / 8
			bitIdx := uint((2 * b) % 8)
			b0 := (buf[byteIdx] >> bitIdx) & 1
			b1 := (buf[byteIdx] >> (bitIdx + 1)) & 1
			acc += int64(b0) - int64(b1)
		}
		values[i] = acc
	}

	for row, m := range s.ctx.moduli {
		dst := p.Coeffs[row]
		for i := 0; i < N; i++ {
			v := values[i]
			if v < 0 {
				dst[i] = m.Q - uint64(-v)%m.Q
				if dst[i] == m.Q {
					dst[i] = 0
				}
			} else {
				dst[i] = uint64(v) % m.Q
			}
		}
	}
	p.Format = Coeff
}

// ReadNew draws a fresh centered-binomial polynomial.
func (s *CBDSampler) ReadNew() *Poly {
	p := s.ctx.NewPoly(Coeff)
	s.Read(p)
	return p
}
