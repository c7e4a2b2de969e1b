package rlwe

import (
	"encoding/binary"

	"github.com/heprivacy/hepir/herrors"
	"github.com/heprivacy/hepir/ring"
)

const (
	ciphertextTagSeeded byte = 0
	ciphertextTagFull   byte = 1
)

// SerializationByteCount estimates MarshalBinary's (uncompressed) output
// size at level for a ciphertext of the given degree, so a caller writing
// many ciphertexts can pre-size a buffer rather than growing one append at
// a time. Pass seeded=true for the smaller `seeded` form's estimate.
func SerializationByteCount(ctx *Context, level, degree int, seeded bool) (int, error) {
	lvlCtx, err := ctx.LevelContext(level)
	if err != nil {
		return 0, err
	}
	if seeded {
		return 1 + lvlCtx.ByteLen() + 32, nil
	}
	numPolys := degree + 1
	return 1 + numPolys*lvlCtx.ByteLen() + 4*numPolys + 8, nil
}

// MarshalBinary encodes ct as the tagged union the wire format names:
// `seeded` (one polynomial's raw bytes plus a 32-byte seed) when ct is
// still seeded, `full` otherwise, with no bits skipped. Use
// MarshalBinaryCompressed to additionally drop known-unused low bits from a
// for-decryption ciphertext.
func (ct *Ciphertext) MarshalBinary(ctx *Context) ([]byte, error) {
	return ct.MarshalBinaryCompressed(ctx, nil)
}

// MarshalBinaryCompressed is MarshalBinary with per-polynomial skip_lsbs: a
// ciphertext about to be decrypted and discarded can drop the low
// skipLSBs[i] bits of polynomial i (these never influence the recovered
// plaintext once the error term has been accounted for), shrinking the
// wire size. A nil skipLSBs behaves as all zero.
//
// Decoding a compressed ciphertext requires the same skipLSBs the encoder
// used, via UnmarshalCiphertextCompressed: the widths are needed to locate
// each polynomial's bytes, so they must be agreed out of band (by protocol
// convention, the way level and degree already are) rather than recovered
// from the trailer that follows the polynomial data on the wire.
func (ct *Ciphertext) MarshalBinaryCompressed(ctx *Context, skipLSBs []uint32) ([]byte, error) {
	lvlCtx, err := ctx.LevelContext(ct.Level)
	if err != nil {
		return nil, err
	}

	if ct.IsSeeded() {
		if ct.Degree() != 1 {
			return nil, herrors.New(herrors.InvalidParameter, "only a degree-1 ciphertext can be seeded")
		}
		poly0, err := lvlCtx.MarshalBinary(ct.Value[0])
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, 1+len(poly0)+32)
		out = append(out, ciphertextTagSeeded)
		out = append(out, poly0...)
		out = append(out, ct.Seed[:]...)
		return out, nil
	}

	if skipLSBs == nil {
		skipLSBs = make([]uint32, len(ct.Value))
	}
	if len(skipLSBs) != len(ct.Value) {
		return nil, herrors.New(herrors.InvalidParameter, "skipLSBs has %d entries, ciphertext has %d polynomials", len(skipLSBs), len(ct.Value))
	}

	out := []byte{ciphertextTagFull}
	for i, p := range ct.Value {
		packed, err := marshalPolyCompressed(lvlCtx, p, skipLSBs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, packed...)
	}

	var u32buf [4]byte
	for _, s := range skipLSBs {
		binary.LittleEndian.PutUint32(u32buf[:], s)
		out = append(out, u32buf[:]...)
	}
	var u64buf [8]byte
	binary.LittleEndian.PutUint64(u64buf[:], ct.CorrectionFactor)
	out = append(out, u64buf[:]...)

	return out, nil
}

// UnmarshalCiphertext decodes an uncompressed ciphertext (skip_lsbs all
// zero) of the given degree and Format at level. The caller must already
// know the ciphertext's degree, level, and Format: none is carried on the
// wire, since all three are always known from the surrounding protocol
// state (a server answers at a level, degree, and domain the client's
// query fixed; a fresh encryption is always Coeff-form, a key-switching
// digit always Eval-form). For a ciphertext serialized with
// MarshalBinaryCompressed(ctx, skipLSBs) where skipLSBs is not all zero,
// use UnmarshalCiphertextCompressed instead.
func UnmarshalCiphertext(ctx *Context, level, degree int, format ring.Format, data []byte) (*Ciphertext, error) {
	return unmarshalCiphertext(ctx, level, degree, format, nil, data)
}

// UnmarshalCiphertextCompressed decodes a ciphertext serialized with
// MarshalBinaryCompressed(ctx, skipLSBs), where skipLSBs must match exactly
// what the encoder used (the decoder needs each polynomial's packed bit
// width to know where it ends in the byte stream, so this cannot be
// recovered from the trailer that follows the polynomial data).
func UnmarshalCiphertextCompressed(ctx *Context, level, degree int, format ring.Format, skipLSBs []uint32, data []byte) (*Ciphertext, error) {
	return unmarshalCiphertext(ctx, level, degree, format, skipLSBs, data)
}

func unmarshalCiphertext(ctx *Context, level, degree int, format ring.Format, expectSkipLSBs []uint32, data []byte) (*Ciphertext, error) {
	if len(data) < 1 {
		return nil, herrors.New(herrors.CorruptedData, "ciphertext buffer is empty")
	}
	lvlCtx, err := ctx.LevelContext(level)
	if err != nil {
		return nil, err
	}

	switch data[0] {
	case ciphertextTagSeeded:
		if degree != 1 {
			return nil, herrors.New(herrors.CorruptedData, "seeded ciphertext tag with degree %d, expected 1", degree)
		}
		polyLen := lvlCtx.ByteLen()
		if len(data) != 1+polyLen+32 {
			return nil, herrors.New(herrors.CorruptedData, "seeded ciphertext buffer is %d bytes, expected %d", len(data), 1+polyLen+32)
		}
		poly0, err := lvlCtx.UnmarshalBinary(data[1:1+polyLen], format)
		if err != nil {
			return nil, err
		}
		var seed [32]byte
		copy(seed[:], data[1+polyLen:])
		return &Ciphertext{
			Value:            []*ring.Poly{poly0, lvlCtx.NewPoly(format)},
			Level:            level,
			CorrectionFactor: 1,
			Seed:             &seed,
		}, nil

	case ciphertextTagFull:
		numPolys := degree + 1
		skipLSBs := expectSkipLSBs
		if skipLSBs == nil {
			skipLSBs = make([]uint32, numPolys)
		}
		if len(skipLSBs) != numPolys {
			return nil, herrors.New(herrors.InvalidParameter, "skipLSBs has %d entries, ciphertext has %d polynomials", len(skipLSBs), numPolys)
		}

		pos := 1
		values := make([]*ring.Poly, numPolys)
		for i := 0; i < numPolys; i++ {
			p, n, err := unmarshalPolyCompressed(lvlCtx, data, pos, skipLSBs[i], format)
			if err != nil {
				return nil, err
			}
			values[i] = p
			pos += n
		}

		if len(data) < pos+4*numPolys+8 {
			return nil, herrors.New(herrors.CorruptedData, "ciphertext buffer truncated before skip_lsbs/correction factor")
		}
		for i := 0; i < numPolys; i++ {
			got := binary.LittleEndian.Uint32(data[pos : pos+4])
			pos += 4
			if got != skipLSBs[i] {
				return nil, herrors.New(herrors.CorruptedData, "ciphertext skip_lsbs[%d]=%d on the wire does not match the %d the caller supplied", i, got, skipLSBs[i])
			}
		}
		correctionFactor := binary.LittleEndian.Uint64(data[pos : pos+8])
		pos += 8
		if pos != len(data) {
			return nil, herrors.New(herrors.CorruptedData, "ciphertext buffer has %d trailing bytes", len(data)-pos)
		}

		return &Ciphertext{Value: values, Level: level, CorrectionFactor: correctionFactor}, nil

	default:
		return nil, herrors.New(herrors.CorruptedData, "unknown ciphertext tag byte %d", data[0])
	}
}

// marshalPolyCompressed serializes p with its low skip bits dropped from
// the wire entirely: each coefficient is packed into (64-skip) bits
// instead of the full 64, tightly across the row, one row per RNS modulus.
func marshalPolyCompressed(ctx *ring.PolyContext, p *ring.Poly, skip uint32) ([]byte, error) {
	if skip == 0 {
		return ctx.MarshalBinary(p)
	}
	if skip >= 64 {
		return nil, herrors.New(herrors.InvalidParameter, "skip_lsbs of %d would drop an entire 64-bit coefficient", skip)
	}
	bitWidth := 64 - int(skip)
	out := make([]byte, 0, len(p.Coeffs)*ceilDivInt(ctx.N()*bitWidth, 8))
	for _, row := range p.Coeffs {
		shifted := make([]uint64, len(row))
		for i, v := range row {
			shifted[i] = v >> skip
		}
		out = append(out, packUint64Bits(shifted, bitWidth)...)
	}
	return out, nil
}

// unmarshalPolyCompressed reads one polynomial starting at data[pos], with
// its low skip bits reinflated to zero, returning it and the number of
// bytes consumed.
func unmarshalPolyCompressed(ctx *ring.PolyContext, data []byte, pos int, skip uint32, format ring.Format) (*ring.Poly, int, error) {
	if skip == 0 {
		want := ctx.ByteLen()
		if pos+want > len(data) {
			return nil, 0, herrors.New(herrors.CorruptedData, "ciphertext buffer truncated before a polynomial")
		}
		p, err := ctx.UnmarshalBinary(data[pos:pos+want], format)
		if err != nil {
			return nil, 0, err
		}
		return p, want, nil
	}

	bitWidth := 64 - int(skip)
	rows := ctx.Level() + 1
	n := ctx.N()
	rowBytes := ceilDivInt(n*bitWidth, 8)
	want := rows * rowBytes
	if pos+want > len(data) {
		return nil, 0, herrors.New(herrors.CorruptedData, "ciphertext buffer truncated before a compressed polynomial")
	}

	p := ctx.NewPoly(format)
	for r := 0; r < rows; r++ {
		chunk := data[pos+r*rowBytes : pos+(r+1)*rowBytes]
		values := unpackUint64Bits(chunk, bitWidth, n)
		for i, v := range values {
			p.Coeffs[r][i] = v << skip
		}
	}
	return p, want, nil
}

func ceilDivInt(a, b int) int {
	return (a + b - 1) / b
}

// packUint64Bits packs values (each already reduced to the low bitWidth
// bits) into a tightly-packed little-endian bitstream.
func packUint64Bits(values []uint64, bitWidth int) []byte {
	totalBits := len(values) * bitWidth
	out := make([]byte, ceilDivInt(totalBits, 8))
	bitPos := 0
	for _, v := range values {
		for b := 0; b < bitWidth; b++ {
			if (v>>uint(b))&1 != 0 {
				out[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
	return out
}

// unpackUint64Bits is packUint64Bits' inverse, reading count values of
// bitWidth bits each.
func unpackUint64Bits(data []byte, bitWidth, count int) []uint64 {
	out := make([]uint64, count)
	bitPos := 0
	for i := range out {
		var v uint64
		for b := 0; b < bitWidth; b++ {
			if data[bitPos/8]>>uint(bitPos%8)&1 != 0 {
				v |= 1 << uint(b)
			}
			bitPos++
		}
		out[i] = v
	}
	return out
}
