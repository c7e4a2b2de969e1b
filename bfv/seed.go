package bfv

import "golang.org/x/crypto/blake2b"

// deriveSeed expands a master seed plus a label into an independent 32-byte
// sub-seed, the same blake2b-based construction the rlwe package uses to
// fan one client-held seed out into many deterministic sampler seeds.
func deriveSeed(master [32]byte, label string) [32]byte {
	h, err := blake2b.New256(master[:])
	if err != nil {
		panic(err)
	}
	h.Write([]byte(label))
	sum := h.Sum(nil)
	var out [32]byte
	copy(out[:], sum)
	return out
}
