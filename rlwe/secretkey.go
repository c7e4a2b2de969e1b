package rlwe

import (
	"crypto/rand"

	"github.com/heprivacy/hepir/ring"
)

// SecretKey is a ternary polynomial in Eval form, the sole secret held by
// the client. It is exclusively owned by whoever generated it and is only
// ever passed by reference into encryption, decryption, and
// evaluation-key generation.
type SecretKey struct {
	Value *ring.Poly // Eval form, full level
}

// NewSeed draws 32 fresh random bytes from the OS CSPRNG, for seeding a
// ciphertext or a key-generation sampler. Not itself part of the
// deterministic/seeded-sampling surface — used only to produce the seed
// that surface then consumes.
func NewSeed() ([32]byte, error) {
	var seed [32]byte
	_, err := rand.Read(seed[:])
	return seed, err
}

// GenerateSecretKey draws a fresh ternary secret key over ctx.RingQ, seeded
// from seed.
func GenerateSecretKey(ctx *Context, seed [32]byte) (*SecretKey, error) {
	sampler := ring.NewTernarySampler(ctx.RingQ, seed)
	coeff := sampler.ReadNew()

	mont := ctx.RingQ.NewPoly(ring.Coeff)
	ctx.RingQ.ToMontgomery(coeff, mont)

	eval := ctx.RingQ.NewPoly(ring.Coeff)
	ctx.RingQ.NTT(mont, eval)

	return &SecretKey{Value: eval}, nil
}

// AtLevel returns the secret key's Value truncated to the first level+1 RNS
// rows, for operating on a ciphertext that has been mod-switched down.
func (sk *SecretKey) AtLevel(level int) *ring.Poly {
	return &ring.Poly{Coeffs: sk.Value.Coeffs[:level+1], Format: sk.Value.Format}
}
