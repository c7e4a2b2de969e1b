package ring

import (
	"fmt"
	"math/big"
)

// IsPrime reports whether q is prime, using Baillie-PSW via math/big, the
// same primality test lattigo's own IsPrime helper delegates to.
func IsPrime(q uint64) bool {
	if q < 2 {
		return false
	}
	return new(big.Int).SetUint64(q).ProbablyPrime(32)
}

// primitiveRoot returns a generator of the multiplicative group Z_q^*, used
// to derive the 2N-th roots of unity the NTT needs.
func primitiveRoot(q uint64) uint64 {
	if q == 2 {
		return 1
	}

	qm1 := q - 1
	factors := primeFactors(qm1)
	bred := BRedParams(q)

	for g := uint64(2); g < q; g++ {
		isGenerator := true
		for _, p := range factors {
			if PowMod(g, qm1/p, q, bred) == 1 {
				isGenerator = false
				break
			}
		}
		if isGenerator {
			return g
		}
	}
	panic(fmt.Sprintf("ring: no primitive root found modulo %d", q))
}

// primeFactors returns the distinct prime factors of n by trial division.
func primeFactors(n uint64) []uint64 {
	var factors []uint64
	for p := uint64(2); p*p <= n; p++ {
		if n%p == 0 {
			factors = append(factors, p)
			for n%p == 0 {
				n /= p
			}
		}
	}
	if n > 1 {
		factors = append(factors, n)
	}
	return factors
}

// GeneratePrimes deterministically walks outward from 2^b (for each bit
// count in bitCounts) to the nearest prime congruent to 1 mod nttDegree.
// If preferSmall is true, the walk favors the prime just above 2^(b-1);
// otherwise it favors the prime just below 2^b. If nttDegree is 0, any
// prime of the requested bit length is accepted (no NTT-friendliness
// requirement). Returns ErrInvalidBitCount if no such prime exists within
// the representable range for that bit count.
func GeneratePrimes(bitCounts []int, preferSmall bool, nttDegree int) ([]uint64, error) {
	used := make(map[uint64]bool)
	primes := make([]uint64, 0, len(bitCounts))

	for _, b := range bitCounts {
		p, err := generatePrime(b, preferSmall, nttDegree, used)
		if err != nil {
			return nil, err
		}
		used[p] = true
		primes = append(primes, p)
	}
	return primes, nil
}

func generatePrime(bitCount int, preferSmall bool, nttDegree int, used map[uint64]bool) (uint64, error) {
	if bitCount < 2 || bitCount > 62 {
		return 0, fmt.Errorf("%w: bit count %d out of range [2,62]", ErrInvalidBitCount, bitCount)
	}

	modulus := uint64(1)
	if nttDegree > 1 {
		modulus = uint64(nttDegree)
	}

	low := uint64(1) << uint(bitCount-1)
	high := (uint64(1) << uint(bitCount)) - 1
	if bitCount == 63 {
		high = ^uint64(0) >> 1
	}

	var start uint64
	if preferSmall {
		start = low
	} else {
		start = high
	}
	// Align start to be congruent to 1 mod `modulus`.
	if modulus > 1 {
		rem := start % modulus
		if preferSmall {
			if rem > 1 {
				start += modulus - rem + 1
			} else if rem == 0 {
				start += 1
			}
		} else {
			if rem >= 1 {
				start -= rem - 1
			} else {
				start -= modulus - 1
			}
		}
	}

	if preferSmall {
		for c := start; c <= high; c += maxU64(modulus, 1) {
			if !used[c] && IsPrime(c) {
				return c, nil
			}
		}
	} else {
		for c := start; c >= low && c <= high; c -= maxU64(modulus, 1) {
			if !used[c] && IsPrime(c) {
				return c, nil
			}
			if c < maxU64(modulus, 1) {
				break
			}
		}
	}

	return 0, fmt.Errorf("%w: no %d-bit prime congruent to 1 mod %d available", ErrInvalidBitCount, bitCount, modulus)
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
