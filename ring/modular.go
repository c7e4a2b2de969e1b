// Package ring implements RNS-accelerated modular polynomial arithmetic over
// R_q = Z_q[x]/(x^N+1): modular reduction primitives, the negacyclic NTT,
// Galois automorphisms, and the seeded samplers the BFV scheme is built on.
package ring

import (
	"math/big"
	"math/bits"
)

// BRedParams computes the Barrett reduction constants for q: the high and
// low 64-bit words of floor(2^128/q).
func BRedParams(q uint64) []uint64 {
	bigR := new(big.Int).Lsh(big.NewInt(1), 128)
	bigR.Quo(bigR, new(big.Int).SetUint64(q))
	mhi := new(big.Int).Rsh(bigR, 64).Uint64()
	mlo := bigR.Uint64()
	return []uint64{mhi, mlo}
}

// BRedAdd reduces x modulo q where 0 <= x < 2^64, using Barrett reduction.
func BRedAdd(x, q uint64, u []uint64) uint64 {
	s0, _ := bits.Mul64(x, u[0])
	r := x - s0*q
	if r >= q {
		r -= q
	}
	return r
}

// BRed computes x*y mod q using Barrett reduction.
func BRed(x, y, q uint64, u []uint64) uint64 {
	ahi, alo := bits.Mul64(x, y)

	lhi, _ := bits.Mul64(alo, u[1])
	mhi, mlo := bits.Mul64(alo, u[0])
	s0, carry := bits.Add64(mlo, lhi, 0)
	s1 := mhi + carry

	mhi, mlo = bits.Mul64(ahi, u[1])
	_, carry = bits.Add64(mlo, s0, 0)
	lhi = mhi + carry

	s0 = ahi*u[0] + s1 + lhi

	r := alo - s0*q
	if r >= q {
		r -= q
	}
	return r
}

// MRedParams computes qInv = q^-1 mod 2^64, the constant required by MRed.
func MRedParams(q uint64) uint64 {
	qInv := uint64(1)
	x := q
	for i := 0; i < 63; i++ {
		qInv *= x
		x *= x
	}
	return qInv
}

// MForm switches a into the Montgomery domain: returns a*2^64 mod q.
func MForm(a, q uint64, u []uint64) uint64 {
	mhi, _ := bits.Mul64(a, u[1])
	r := -(a*u[0] + mhi) * q
	if r >= q {
		r -= q
	}
	return r
}

// InvMForm switches a out of the Montgomery domain: returns a*2^-64 mod q.
func InvMForm(a, q, qInv uint64) uint64 {
	r, _ := bits.Mul64(a*qInv, q)
	r = q - r
	if r >= q {
		r -= q
	}
	return r
}

// MRed computes x*y*2^-64 mod q, where x is assumed in the Montgomery domain.
func MRed(x, y, q, qInv uint64) uint64 {
	ahi, alo := bits.Mul64(x, y)
	h, _ := bits.Mul64(alo*qInv, q)
	r := ahi - h + q
	if r >= q {
		r -= q
	}
	return r
}

// CRed conditionally subtracts q from a, assuming 0 <= a < 2q.
func CRed(a, q uint64) uint64 {
	if a >= q {
		return a - q
	}
	return a
}

// AddMod returns (a+b) mod q for a, b in [0, q).
func AddMod(a, b, q uint64) uint64 {
	return CRed(a+b, q)
}

// SubMod returns (a-b) mod q for a, b in [0, q).
func SubMod(a, b, q uint64) uint64 {
	if a >= b {
		return a - b
	}
	return a + q - b
}

// MulMod returns a*b mod q using Barrett reduction.
func MulMod(a, b, q uint64, bred []uint64) uint64 {
	return BRed(a, b, q, bred)
}

// MultiplyHigh returns the upper 64 bits of the 128-bit product a*b.
func MultiplyHigh(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	return hi
}

// PowMod returns x^e mod q by square-and-multiply.
func PowMod(x, e, q uint64, bred []uint64) uint64 {
	result := uint64(1) % q
	base := x % q
	for e > 0 {
		if e&1 == 1 {
			result = BRed(result, base, q, bred)
		}
		base = BRed(base, base, q, bred)
		e >>= 1
	}
	return result
}

// InverseMod returns x^-1 mod q via the extended Euclidean algorithm. It
// panics if x is not invertible modulo q (x and q not coprime).
func InverseMod(x, q uint64) uint64 {
	if q == 1 {
		return 0
	}
	a, b := int64(x%q), int64(q)
	oldS, s := int64(1), int64(0)
	for b != 0 {
		quotient := a / b
		a, b = b, a-quotient*b
		oldS, s = s, oldS-quotient*s
	}
	if a != 1 {
		panic("ring: InverseMod: value is not invertible modulo q")
	}
	if oldS < 0 {
		oldS += int64(q)
	}
	return uint64(oldS)
}
