package pir

import (
	"github.com/heprivacy/hepir/bfv"
	"github.com/heprivacy/hepir/herrors"
	"github.com/heprivacy/hepir/ring"
	"github.com/heprivacy/hepir/rlwe"
)

// Client issues PIR queries and decodes the server's response.
type Client struct {
	ctx       *rlwe.Context
	sk        *rlwe.SecretKey
	encryptor *bfv.Encryptor
	decryptor *bfv.Decryptor
	params    *Parameters
}

// NewClient builds a Client for params, generating a fresh secret key.
func NewClient(ctx *rlwe.Context, params *Parameters) (*Client, error) {
	seed, err := rlwe.NewSeed()
	if err != nil {
		return nil, err
	}
	sk, err := rlwe.GenerateSecretKey(ctx, seed)
	if err != nil {
		return nil, err
	}
	return &Client{
		ctx:       ctx,
		sk:        sk,
		encryptor: bfv.NewEncryptor(ctx, sk),
		decryptor: bfv.NewDecryptor(ctx, sk),
		params:    params,
	}, nil
}

// GenerateEvaluationKey exports the Galois keys the server needs to expand
// this client's compressed queries, seeded from seed.
func (c *Client) GenerateEvaluationKey(seed [32]byte) (*rlwe.EvaluationKey, error) {
	return rlwe.GenEvaluationKey(c.ctx, c.sk, c.params.GaloisElements(), seed)
}

// Query builds a single compressed ciphertext encoding a one-hot selector
// for each of up to Params.BatchSize plaintext indices (each index into the
// hypercube's flat plaintext array, row-major over Params.Dimensions).
// Every index gets its own disjoint CompressedQuerySize()-wide block of
// coefficients, so the server can expand and fold them independently
// (Server.Answer returns one response ciphertext per index, in the order
// given here).
func (c *Client) Query(indices ...int) (*rlwe.Ciphertext, error) {
	if len(indices) == 0 {
		return nil, herrors.New(herrors.InvalidParameter, "Query requires at least one index")
	}
	if len(indices) > c.params.BatchSize {
		return nil, herrors.New(herrors.InvalidParameter, "%d indices exceed Params.BatchSize %d", len(indices), c.params.BatchSize)
	}

	numPlaintexts := product(c.params.Dimensions)
	slotWidth := c.params.CompressedQuerySize()

	N := c.ctx.Params.N()
	t := c.ctx.Params.T()
	// ExpandQuery multiplies every coefficient by 2 per round, so each
	// selector is pre-scaled by the inverse of 2^rounds mod t.
	inv := ring.InverseMod((uint64(1)<<uint(c.params.roundsNeeded()))%t, t)

	coeffs := make([]uint64, N)
	for b, index := range indices {
		if index < 0 || index >= numPlaintexts {
			return nil, herrors.New(herrors.InvalidParameter, "plaintext index %d out of range [0, %d)", index, numPlaintexts)
		}
		coords := indexToCoords(index, c.params.Dimensions)

		base := b * slotWidth
		offset := 0
		for dim, d := range c.params.Dimensions {
			coeffs[base+offset+coords[dim]] = inv
			offset += d
		}
	}

	pt := &bfv.Plaintext{Coeffs: coeffs}
	return c.encryptor.EncryptNew(pt)
}

// indexToCoords decomposes a flat row-major index into per-dimension
// coordinates.
func indexToCoords(index int, dims []int) []int {
	coords := make([]int, len(dims))
	for i := len(dims) - 1; i >= 0; i-- {
		coords[i] = index % dims[i]
		index /= dims[i]
	}
	return coords
}

// DecodeEntry decrypts the server's response ciphertext for the entry at
// entryOffsetInPlaintext within its plaintext's batch (Params.EntriesPerPlaintext
// entries share one plaintext), returning the raw entry bytes.
func (c *Client) DecodeEntry(response *rlwe.Ciphertext, entryOffsetInPlaintext int) ([]byte, error) {
	pt, err := c.decryptor.Decrypt(response)
	if err != nil {
		return nil, err
	}
	bitsPerCoeff := bitLen(c.ctx.Params.T()) - 1
	coeffsPerEntry := ceilDiv(c.params.EntrySize*8, bitsPerCoeff)
	start := entryOffsetInPlaintext * coeffsPerEntry
	end := start + coeffsPerEntry
	if end > len(pt.Coeffs) {
		return nil, herrors.New(herrors.InvalidParameter, "entry offset out of range for plaintext of %d coefficients", len(pt.Coeffs))
	}
	return unpackBits(pt.Coeffs[start:end], bitsPerCoeff, c.params.EntrySize), nil
}
