package rlwe

import "golang.org/x/crypto/blake2b"

// deriveSeed derives a 32-byte sub-seed from a master seed, a label, and an
// index, via blake2b. lattigo's ring.CRPGenerator generates deterministic
// uniform polynomials using the same hash function from a keyed PRNG; here
// it instead expands one short seed into many independent per-digit
// sub-seeds for key-switching key generation, rather than directly driving
// the polynomial sampler.
func deriveSeed(master [32]byte, label string, index int) [32]byte {
	h, err := blake2b.New256(master[:])
	if err != nil {
		panic(err)
	}
	h.Write([]byte(label))
	h.Write([]byte{byte(index), byte(index >> 8), byte(index >> 16), byte(index >> 24)})
	sum := h.Sum(nil)
	var out [32]byte
	copy(out[:], sum)
	return out
}
