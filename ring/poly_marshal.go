package ring

import (
	"encoding/binary"

	"github.com/heprivacy/hepir/herrors"
)

// ByteLen returns the number of bytes p.MarshalBinary produces at the given
// context: one little-endian uint64 per coefficient, L rows of N
// coefficients each, so callers can pre-size a buffer before a batch of
// serializations rather than growing one allocation at a time.
func (c *PolyContext) ByteLen() int {
	return 8 * len(c.moduli) * c.n
}

// MarshalBinary encodes p as L*N little-endian 8-byte coefficients, one row
// per RNS modulus in ascending order. Format is not recorded: the caller
// already knows a polynomial's format from context (a ciphertext always
// serializes its polynomials at a fixed, known format), so carrying an
// extra tag byte per polynomial would be redundant here.
func (c *PolyContext) MarshalBinary(p *Poly) ([]byte, error) {
	c.checkShape(p)
	out := make([]byte, c.ByteLen())
	pos := 0
	for _, row := range p.Coeffs {
		for _, v := range row {
			binary.LittleEndian.PutUint64(out[pos:pos+8], v)
			pos += 8
		}
	}
	return out, nil
}

// UnmarshalBinary is MarshalBinary's inverse, allocating a new Poly of
// format f at the context's level.
func (c *PolyContext) UnmarshalBinary(data []byte, f Format) (*Poly, error) {
	want := c.ByteLen()
	if len(data) < want {
		return nil, herrors.New(herrors.CorruptedData, "polynomial buffer is %d bytes, need %d", len(data), want)
	}
	p := c.NewPoly(f)
	pos := 0
	for _, row := range p.Coeffs {
		for i := range row {
			row[i] = binary.LittleEndian.Uint64(data[pos : pos+8])
			pos += 8
		}
	}
	return p, nil
}
