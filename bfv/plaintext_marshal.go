package bfv

import "github.com/heprivacy/hepir/herrors"

// bitsFor returns ceil(log2(t)), the field width the single-modulus Coeff
// form wire format packs each coefficient into.
func bitsFor(t uint64) int {
	n := 0
	x := t - 1
	for x > 0 {
		x >>= 1
		n++
	}
	if n == 0 {
		n = 1
	}
	return n
}

// MarshalBinary packs p's N coefficients (each < t) into ceil(N *
// ceil(log2 t) / 8) bytes, bitWidth bits per coefficient, tightly packed
// with no padding between coefficients: this is the single-modulus Coeff
// form, the only representation a bfv.Plaintext here ever takes (it is
// never lifted into a multi-row RNS Eval form — that lift happens inside
// the PIR server's own processing step, on a copy, and is never itself
// serialized independently of the database it belongs to).
func (p *Plaintext) MarshalBinary(t uint64) []byte {
	bitWidth := bitsFor(t)
	totalBits := len(p.Coeffs) * bitWidth
	out := make([]byte, (totalBits+7)/8)
	bitPos := 0
	for _, v := range p.Coeffs {
		for b := 0; b < bitWidth; b++ {
			if (v>>uint(b))&1 != 0 {
				out[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
	return out
}

// UnmarshalPlaintext is MarshalBinary's inverse, for a plaintext of n
// coefficients modulo t.
func UnmarshalPlaintext(n int, t uint64, data []byte) (*Plaintext, error) {
	bitWidth := bitsFor(t)
	want := (n*bitWidth + 7) / 8
	if len(data) < want {
		return nil, herrors.New(herrors.CorruptedData, "plaintext buffer is %d bytes, need %d", len(data), want)
	}

	coeffs := make([]uint64, n)
	bitPos := 0
	for i := range coeffs {
		var v uint64
		for b := 0; b < bitWidth; b++ {
			if data[bitPos/8]>>uint(bitPos%8)&1 != 0 {
				v |= 1 << uint(b)
			}
			bitPos++
		}
		coeffs[i] = v
	}
	return &Plaintext{Coeffs: coeffs}, nil
}
