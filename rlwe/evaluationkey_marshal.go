package rlwe

import (
	"encoding/binary"
	"sort"

	"github.com/heprivacy/hepir/herrors"
	"github.com/heprivacy/hepir/ring"
)

// MarshalBinary encodes ek as: a 4-byte little-endian galois-key count,
// then for each galois element (sorted ascending, for a deterministic
// wire form) an 8-byte little-endian galois element followed by its
// key-switching key, then a 1-byte has-relin-key flag and, if set, the
// relinearization key.
//
// Each key-switching key here serializes its digit ciphertexts in the
// `full` form rather than `seeded`: a KeySwitchKey digit's second
// polynomial is generated by sampling into Coeff form and then lifting it
// through Montgomery-form and an NTT before storage, so reproducing it from
// a bare seed on decode would require replaying that exact pipeline rather
// than the plain uniform-sampler materialization a Ciphertext's own
// Seed/Materialize pair already does. Shipping the full polynomial avoids
// that mismatch at the cost of the bandwidth a seeded encoding would have
// saved.
func (ek *EvaluationKey) MarshalBinary(ctx *Context) ([]byte, error) {
	galoisElements := make([]uint64, 0, len(ek.GaloisKeys))
	for g := range ek.GaloisKeys {
		galoisElements = append(galoisElements, g)
	}
	sort.Slice(galoisElements, func(i, j int) bool { return galoisElements[i] < galoisElements[j] })

	var out []byte
	var u32buf [4]byte
	binary.LittleEndian.PutUint32(u32buf[:], uint32(len(galoisElements)))
	out = append(out, u32buf[:]...)

	for _, g := range galoisElements {
		var u64buf [8]byte
		binary.LittleEndian.PutUint64(u64buf[:], g)
		out = append(out, u64buf[:]...)

		kskBytes, err := ek.GaloisKeys[g].MarshalBinary(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, kskBytes...)
	}

	if ek.RelinKey != nil {
		out = append(out, 1)
		kskBytes, err := ek.RelinKey.MarshalBinary(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, kskBytes...)
	} else {
		out = append(out, 0)
	}

	return out, nil
}

// MarshalBinary encodes a key-switching key as a 4-byte little-endian digit
// count followed by each digit's full-form ciphertext, length-prefixed
// (4-byte little-endian) since digit ciphertexts are always degree-1 but
// the wire format has no other way to know where one ends and the next
// begins.
func (ksk *KeySwitchKey) MarshalBinary(ctx *Context) ([]byte, error) {
	var out []byte
	var u32buf [4]byte
	binary.LittleEndian.PutUint32(u32buf[:], uint32(len(ksk.Keys)))
	out = append(out, u32buf[:]...)

	for _, k := range ksk.Keys {
		digitBytes, err := k.MarshalBinary(ctx)
		if err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint32(u32buf[:], uint32(len(digitBytes)))
		out = append(out, u32buf[:]...)
		out = append(out, digitBytes...)
	}
	return out, nil
}

// UnmarshalEvaluationKey is MarshalBinary's inverse. level is the chain
// level every digit ciphertext was generated at (the full modulus chain,
// in this engine's key-generation path).
func UnmarshalEvaluationKey(ctx *Context, level int, data []byte) (*EvaluationKey, error) {
	pos := 0
	if len(data) < 4 {
		return nil, herrors.New(herrors.CorruptedData, "evaluation key buffer too short for galois-key count")
	}
	count := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4

	ek := &EvaluationKey{GaloisKeys: make(map[uint64]*KeySwitchKey, count)}
	for i := 0; i < count; i++ {
		if pos+8 > len(data) {
			return nil, herrors.New(herrors.CorruptedData, "evaluation key buffer truncated before galois element %d", i)
		}
		g := binary.LittleEndian.Uint64(data[pos : pos+8])
		pos += 8

		ksk, n, err := unmarshalKeySwitchKeyAt(ctx, level, data, pos)
		if err != nil {
			return nil, err
		}
		ek.GaloisKeys[g] = ksk
		pos += n
	}

	if pos >= len(data) {
		return nil, herrors.New(herrors.CorruptedData, "evaluation key buffer truncated before the relin-key flag")
	}
	hasRelin := data[pos]
	pos++
	switch hasRelin {
	case 0:
	case 1:
		ksk, n, err := unmarshalKeySwitchKeyAt(ctx, level, data, pos)
		if err != nil {
			return nil, err
		}
		ek.RelinKey = ksk
		pos += n
	default:
		return nil, herrors.New(herrors.CorruptedData, "unknown relin-key flag byte %d", hasRelin)
	}

	if pos != len(data) {
		return nil, herrors.New(herrors.CorruptedData, "evaluation key buffer has %d trailing bytes", len(data)-pos)
	}
	return ek, nil
}

func unmarshalKeySwitchKeyAt(ctx *Context, level int, data []byte, pos int) (*KeySwitchKey, int, error) {
	start := pos
	if pos+4 > len(data) {
		return nil, 0, herrors.New(herrors.CorruptedData, "key-switching key buffer truncated before digit count")
	}
	count := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4

	keys := make([]*Ciphertext, count)
	for j := 0; j < count; j++ {
		if pos+4 > len(data) {
			return nil, 0, herrors.New(herrors.CorruptedData, "key-switching key buffer truncated before digit %d length", j)
		}
		digitLen := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if pos+digitLen > len(data) {
			return nil, 0, herrors.New(herrors.CorruptedData, "key-switching key buffer truncated before digit %d", j)
		}
		ct, err := UnmarshalCiphertext(ctx, level, 1, ring.Eval, data[pos:pos+digitLen])
		if err != nil {
			return nil, 0, err
		}
		keys[j] = ct
		pos += digitLen
	}
	return &KeySwitchKey{Keys: keys}, pos - start, nil
}
