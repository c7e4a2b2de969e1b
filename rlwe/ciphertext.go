package rlwe

import "github.com/heprivacy/hepir/ring"

// Ciphertext is an ordered sequence of polynomials over the same ciphertext
// context, optionally seeded, plus a correction factor. Length 2 for a
// fresh ciphertext, growing with unrelinearized ct x ct products.
//
// A ciphertext is seeded iff Seed != nil: Value[1] was never sampled
// directly, only reconstructed (lazily, via Materialize) from expanding
// Seed through the uniform sampler.
type Ciphertext struct {
	Value            []*ring.Poly
	Level            int
	CorrectionFactor uint64
	Seed             *[32]byte
}

// NewCiphertext allocates a ciphertext of the given degree (polynomial
// count) at the given level, all-zero, with correction factor 1.
func NewCiphertext(ctx *Context, degree, level int) (*Ciphertext, error) {
	lvlCtx, err := ctx.LevelContext(level)
	if err != nil {
		return nil, err
	}
	value := make([]*ring.Poly, degree)
	for i := range value {
		value[i] = lvlCtx.NewPoly(ring.Coeff)
	}
	return &Ciphertext{Value: value, Level: level, CorrectionFactor: 1}, nil
}

// Degree returns len(Value)-1 (the ciphertext's polynomial degree in s).
func (ct *Ciphertext) Degree() int { return len(ct.Value) - 1 }

// IsSeeded reports whether ct.Value[1] has not yet been materialized from
// ct.Seed.
func (ct *Ciphertext) IsSeeded() bool { return ct.Seed != nil }

// Materialize expands ct.Seed (if set) into ct.Value[1] via the uniform
// sampler over the ciphertext's level context, then clears the seed. After
// this call IsSeeded() is false and ct.Value is fully populated — required
// before any arithmetic that reads Value[1] directly.
func (ct *Ciphertext) Materialize(ctx *Context) error {
	if ct.Seed == nil {
		return nil
	}
	lvlCtx, err := ctx.LevelContext(ct.Level)
	if err != nil {
		return err
	}
	sampler := ring.NewUniformSampler(lvlCtx, *ct.Seed)
	sampler.Read(ct.Value[1])
	ct.Seed = nil
	return nil
}

// ClearSeed materializes the ciphertext (if seeded) and forgets the seed,
// producing the "full" serialization form.
func (ct *Ciphertext) ClearSeed(ctx *Context) error {
	return ct.Materialize(ctx)
}

// CopyNew returns a deep copy of ct.
func (ct *Ciphertext) CopyNew() *Ciphertext {
	out := &Ciphertext{Level: ct.Level, CorrectionFactor: ct.CorrectionFactor}
	out.Value = make([]*ring.Poly, len(ct.Value))
	for i, p := range ct.Value {
		out.Value[i] = p.CopyNew()
	}
	if ct.Seed != nil {
		s := *ct.Seed
		out.Seed = &s
	}
	return out
}

// IsTransparent reports whether every polynomial of ct except the zeroth is
// zero — decryption would require no key.
func (ct *Ciphertext) IsTransparent(ctx *Context) (bool, error) {
	if ct.Seed != nil {
		// A seeded ciphertext's higher polynomials are a PRNG expansion of
		// a non-trivial seed: by construction never identically zero
		// (the DRBG keystream is not the all-zero stream for any seed in
		// practice), so a seeded ciphertext is never transparent without
		// materializing and checking explicitly.
		if err := ct.Materialize(ctx); err != nil {
			return false, err
		}
	}
	lvlCtx, err := ctx.LevelContext(ct.Level)
	if err != nil {
		return false, err
	}
	for i := 1; i < len(ct.Value); i++ {
		if !lvlCtx.IsZero(ct.Value[i]) {
			return false, nil
		}
	}
	return true, nil
}
