package pir

import (
	"github.com/heprivacy/hepir/bfv"
	"github.com/heprivacy/hepir/rlwe"
)

// ProcessedDatabase is a PIR-ready database: every entry packed into a
// plaintext coefficient range, laid out row-major across Params.Dimensions.
// An all-zero entry's plaintext is left nil so the server's folding step can
// skip it entirely (both as a size optimization and because it would
// contribute nothing to any ciphertext-plaintext product).
type ProcessedDatabase struct {
	Params     *Parameters
	Plaintexts []*bfv.Plaintext
}

// ProcessDatabase packs entries (each exactly Params.EntrySize bytes) into
// a ProcessedDatabase. Entries beyond len(entries) up to the hypercube's
// capacity are treated as all-zero (nil plaintext).
func ProcessDatabase(ctx *rlwe.Context, params *Parameters, entries [][]byte) (*ProcessedDatabase, error) {
	N := ctx.Params.N()
	bitsPerCoeff := bitLen(ctx.Params.T()) - 1
	coeffsPerEntry := ceilDiv(params.EntrySize*8, bitsPerCoeff)

	numPlaintexts := product(params.Dimensions)
	plaintexts := make([]*bfv.Plaintext, numPlaintexts)

	for i := 0; i < numPlaintexts; i++ {
		values := make([]uint64, N)
		nonZero := false

		for e := 0; e < params.EntriesPerPlaintext; e++ {
			entryIdx := i*params.EntriesPerPlaintext + e
			if entryIdx >= len(entries) {
				break
			}
			entry := entries[entryIdx]
			if !isAllZero(entry) {
				nonZero = true
			}
			packBits(entry, bitsPerCoeff, values[e*coeffsPerEntry:(e+1)*coeffsPerEntry])
		}

		if !nonZero {
			continue
		}
		plaintexts[i] = &bfv.Plaintext{Coeffs: values}
	}

	return &ProcessedDatabase{Params: params, Plaintexts: plaintexts}, nil
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// packBits splits entry into len(out) chunks of bitsPerCoeff bits each
// (most-significant chunk first) and stores each chunk's integer value into
// out. A final chunk past the entry's last bit is zero-padded in its low
// bits, so every chunk is bitsPerCoeff bits wide.
func packBits(entry []byte, bitsPerCoeff int, out []uint64) {
	totalBits := len(entry) * 8
	bitPos := 0
	for i := range out {
		var v uint64
		for b := 0; b < bitsPerCoeff; b++ {
			pos := bitPos + b
			if pos >= totalBits {
				v <<= 1
				continue
			}
			byteIdx := pos / 8
			bitIdx := uint(7 - pos%8)
			bit := (entry[byteIdx] >> bitIdx) & 1
			v = (v << 1) | uint64(bit)
		}
		out[i] = v
		bitPos += bitsPerCoeff
	}
}

// unpackBits is the exact inverse of packBits, reconstructing entrySize
// bytes from coefficient chunks.
func unpackBits(coeffs []uint64, bitsPerCoeff, entrySize int) []byte {
	out := make([]byte, entrySize)
	totalBits := entrySize * 8
	bitPos := 0
	for _, v := range coeffs {
		for b := bitsPerCoeff - 1; b >= 0; b-- {
			if bitPos >= totalBits {
				break
			}
			bit := (v >> uint(b)) & 1
			byteIdx := bitPos / 8
			bitIdx := uint(7 - bitPos%8)
			if bit != 0 {
				out[byteIdx] |= 1 << bitIdx
			}
			bitPos++
		}
	}
	return out
}
