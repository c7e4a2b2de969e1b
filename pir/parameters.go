// Package pir implements index-based private information retrieval: a
// client fetches database entry i without the server learning i, using
// MulPIR's compressed-query / Galois-expansion / multiplicative-folding
// protocol over a BFV ciphertext ring.
package pir

import (
	"github.com/heprivacy/hepir/herrors"
	"github.com/heprivacy/hepir/ring"
	"github.com/heprivacy/hepir/rlwe"
)

// KeyCompression trades evaluation-key size against how many rounds of
// Galois-expansion the server can run before the client must regenerate a
// larger key. All three variants emit a prefix of
// ring.GaloisElementsForExpand's ladder (largest shift first, matching the
// order ExpandQuery consumes them in), varying only in how much of the
// ladder is kept.
type KeyCompression int

const (
	// NoCompression emits the full ceil(log2 N)-element ladder, enough to
	// expand to any query width up to N regardless of how this Parameters
	// value is configured.
	NoCompression KeyCompression = iota
	// HybridCompression emits half of the ladder (the first
	// ceil(log2 N / 2) elements), supporting expansion up to
	// 2^ceil(log2N/2) slots.
	HybridCompression
	// MaxCompression emits only as many elements as this exact
	// configuration's query width needs, the smallest key that still
	// works for THIS Parameters value.
	MaxCompression
)

// Dimension count forced by a caller of NewParameters. AutoDimensions lets
// selectDimensions pick whichever of OneDimension/TwoDimensions is cheaper.
const (
	AutoDimensions = 0
	OneDimension   = 1
	TwoDimensions  = 2
)

// Parameters describes one PIR database's shape: how many entries, how big
// each is, and how the server should lay them out across a hypercube of
// ciphertext-selectable dimensions.
type Parameters struct {
	RLWEParams          rlwe.EncryptionParameters
	EntryCount          int
	EntrySize           int // bytes
	Dimensions          []int
	EntriesPerPlaintext int
	// BatchSize is the number of independent index queries the client may
	// pack into one compressed-query ciphertext, each occupying its own
	// disjoint CompressedQuerySize()-wide block of coefficients.
	BatchSize      int
	KeyCompression KeyCompression
}

// NewParameters derives a hypercube layout for entryCount entries of
// entrySize bytes each, packing as many entries as fit into one
// plaintext's coefficients (bounded by maxBatch, 0 meaning unbounded) and
// spreading the resulting plaintext count across dimensionCount dimensions
// (AutoDimensions picks whichever of 1 or 2 is cheaper; OneDimension and
// TwoDimensions force that layout). When unevenDimensions is false, a
// two-dimensional layout uses only exact divisors (d0*d1 equals the
// plaintext count, falling back to [count, 1] when none is cheaper); when
// true, d0*d1 may exceed the plaintext count and the extra cells hold no
// plaintext. batchSize bounds how many index queries the
// client may later pack into a single compressed-query ciphertext (see
// Client.Query); keyCompression bounds how much Galois key material the
// client must generate for that batch width.
func NewParameters(rlweParams rlwe.EncryptionParameters, entryCount, entrySize, maxBatch, dimensionCount, batchSize int, unevenDimensions bool, keyCompression KeyCompression) (*Parameters, error) {
	if entryCount <= 0 {
		return nil, herrors.New(herrors.InvalidParameter, "entryCount must be positive")
	}
	if entrySize <= 0 {
		return nil, herrors.New(herrors.InvalidParameter, "entrySize must be positive")
	}
	if dimensionCount != AutoDimensions && dimensionCount != OneDimension && dimensionCount != TwoDimensions {
		return nil, herrors.New(herrors.InvalidParameter, "dimensionCount must be 0 (auto), 1, or 2, got %d", dimensionCount)
	}
	if batchSize < 1 {
		batchSize = 1
	}

	N := rlweParams.N()
	bitsPerCoeff := bitLen(rlweParams.T()) - 1
	if bitsPerCoeff < 1 {
		return nil, herrors.New(herrors.InvalidParameter, "plaintext modulus too small to pack any bits")
	}
	coeffsPerEntry := ceilDiv(entrySize*8, bitsPerCoeff)
	if coeffsPerEntry > N {
		return nil, herrors.New(herrors.InvalidParameter, "entrySize %d needs %d coefficients, exceeds ring degree %d", entrySize, coeffsPerEntry, N)
	}

	entriesPerPT := N / coeffsPerEntry
	if maxBatch > 0 && entriesPerPT > maxBatch {
		entriesPerPT = maxBatch
	}
	if entriesPerPT < 1 {
		entriesPerPT = 1
	}

	numPlaintexts := ceilDiv(entryCount, entriesPerPT)
	dims := selectDimensions(numPlaintexts, dimensionCount, unevenDimensions)

	querySlotWidth := 0
	for _, d := range dims {
		querySlotWidth += d
	}
	if querySlotWidth*batchSize > N {
		return nil, herrors.New(herrors.InvalidParameter, "batchSize %d with query width %d exceeds ring degree %d", batchSize, querySlotWidth, N)
	}

	params := &Parameters{
		RLWEParams:          rlweParams,
		EntryCount:          entryCount,
		EntrySize:           entrySize,
		Dimensions:          dims,
		EntriesPerPlaintext: entriesPerPT,
		BatchSize:           batchSize,
		KeyCompression:      keyCompression,
	}

	if available := len(params.GaloisElements()); available < params.roundsNeeded() {
		return nil, herrors.New(herrors.InvalidParameter, "keyCompression %d only emits %d Galois elements, %d needed for batchSize %d and query width %d", keyCompression, available, params.roundsNeeded(), batchSize, querySlotWidth)
	}

	return params, nil
}

// selectDimensions picks a hypercube shape covering at least numPlaintexts
// cells. When dimensionCount forces a layout, that layout is used even if
// the other would be cheaper; AutoDimensions compares both and keeps
// whichever has the lower evaluation-key cost (d0+d1), the
// lexicographically smaller (d0, d1) pair winning ties — this tie-break is
// left underspecified by the underlying MulPIR protocol; resolved here in
// favor of determinism over any particular efficiency heuristic.
func selectDimensions(numPlaintexts, dimensionCount int, uneven bool) []int {
	if numPlaintexts <= 1 {
		return []int{1}
	}

	oneD := []int{numPlaintexts}
	if dimensionCount == OneDimension {
		return oneD
	}

	twoD := selectTwoDimensions(numPlaintexts, uneven)
	if dimensionCount == TwoDimensions {
		return twoD
	}

	// AutoDimensions: keep whichever costs less, lexicographic tie-break.
	cost1D := numPlaintexts
	cost2D := twoD[0] + twoD[1]
	if cost2D < cost1D || (cost2D == cost1D && lexLess(twoD[0], twoD[1], oneD)) {
		return twoD
	}
	return oneD
}

// selectTwoDimensions picks the cheapest (d0, d1) pair with d0*d1 >=
// numPlaintexts (d0*d1 == numPlaintexts when uneven is false), ties broken
// lexicographically.
func selectTwoDimensions(numPlaintexts int, uneven bool) []int {
	best := []int{numPlaintexts, 1}
	bestCost := numPlaintexts + 1

	limit := isqrt(numPlaintexts) + 1
	for d0 := 2; d0 <= limit; d0++ {
		d1 := ceilDiv(numPlaintexts, d0)
		if !uneven && d0*d1 != numPlaintexts {
			// Exact layout required: only accept divisors.
			if numPlaintexts%d0 != 0 {
				continue
			}
			d1 = numPlaintexts / d0
		}
		cost := d0 + d1
		if cost < bestCost || (cost == bestCost && lexLess(d0, d1, best)) {
			bestCost = cost
			best = []int{d0, d1}
		}
	}
	return best
}

func lexLess(d0, d1 int, other []int) bool {
	if len(other) == 1 {
		return true
	}
	if d0 != other[0] {
		return d0 < other[0]
	}
	return d1 < other[1]
}

func isqrt(n int) int {
	if n < 0 {
		return 0
	}
	x := 0
	for x*x <= n {
		x++
	}
	return x - 1
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func bitLen(x uint64) int {
	n := 0
	for x > 0 {
		x >>= 1
		n++
	}
	return n
}

func product(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}

// roundsNeeded is the number of Galois-expansion rounds ExpandQuery must run
// to separate BatchSize batched queries' worth of CompressedQuerySize()
// selector slots.
func (p *Parameters) roundsNeeded() int {
	total := p.CompressedQuerySize() * p.BatchSize
	r := 0
	for (1 << uint(r)) < total {
		r++
	}
	return r
}

// GaloisElements returns the Galois elements the client must generate
// key-switching keys for: a prefix of the expansion ladder {N/2^i + 1}
// ExpandQuery consumes in the same order, sized per KeyCompression.
func (p *Parameters) GaloisElements() []uint64 {
	full := ring.GaloisElementsForExpand(p.RLWEParams.N())

	var n int
	switch p.KeyCompression {
	case HybridCompression:
		n = ceilDiv(len(full), 2)
	case MaxCompression:
		n = p.roundsNeeded()
		if n < 1 {
			n = 1
		}
	default:
		n = len(full)
	}
	if n > len(full) {
		n = len(full)
	}
	return full[:n]
}

// CompressedQuerySize returns sum(Dimensions), the number of one-hot
// indicator slots a single query occupies within its batch slot.
func (p *Parameters) CompressedQuerySize() int {
	total := 0
	for _, d := range p.Dimensions {
		total += d
	}
	return total
}
