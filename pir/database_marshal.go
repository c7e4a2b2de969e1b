package pir

import (
	"encoding/binary"

	"github.com/heprivacy/hepir/bfv"
	"github.com/heprivacy/hepir/herrors"
)

const processedDatabaseVersion byte = 1

const (
	plaintextTagNil  byte = 0
	plaintextTagFull byte = 1
)

// MarshalBinary encodes db as: version_byte(=1), a 4-byte little-endian
// plaintext count, then one tag byte per plaintext (0 = nil/all-zero, no
// bytes follow; 1 = a full plaintext follows in the single-modulus Coeff
// form bfv.Plaintext.MarshalBinary produces).
func (db *ProcessedDatabase) MarshalBinary() ([]byte, error) {
	t := db.Params.RLWEParams.T()

	out := []byte{processedDatabaseVersion}
	var u32buf [4]byte
	binary.LittleEndian.PutUint32(u32buf[:], uint32(len(db.Plaintexts)))
	out = append(out, u32buf[:]...)

	for _, p := range db.Plaintexts {
		if p == nil {
			out = append(out, plaintextTagNil)
			continue
		}
		out = append(out, plaintextTagFull)
		out = append(out, p.MarshalBinary(t)...)
	}
	return out, nil
}

// UnmarshalDatabase is MarshalBinary's inverse, rehydrating a
// ProcessedDatabase against params (which fixes N and the plaintext
// modulus, neither of which the wire format repeats per plaintext).
func UnmarshalDatabase(params *Parameters, data []byte) (*ProcessedDatabase, error) {
	if len(data) < 5 {
		return nil, herrors.New(herrors.CorruptedData, "processed-database buffer too short for the header")
	}
	if data[0] != processedDatabaseVersion {
		return nil, herrors.New(herrors.InvalidDatabase, "processed-database version byte %d, expected %d", data[0], processedDatabaseVersion)
	}
	count := int(binary.LittleEndian.Uint32(data[1:5]))
	pos := 5

	n := params.RLWEParams.N()
	t := params.RLWEParams.T()
	plaintextByteLen := len(bfv.NewPlaintext(n).MarshalBinary(t))

	plaintexts := make([]*bfv.Plaintext, count)
	for i := 0; i < count; i++ {
		if pos >= len(data) {
			return nil, herrors.New(herrors.CorruptedData, "processed-database buffer truncated before tag of plaintext %d", i)
		}
		tag := data[pos]
		pos++
		switch tag {
		case plaintextTagNil:
			plaintexts[i] = nil
		case plaintextTagFull:
			if pos+plaintextByteLen > len(data) {
				return nil, herrors.New(herrors.CorruptedData, "processed-database buffer truncated before plaintext %d", i)
			}
			p, err := bfv.UnmarshalPlaintext(n, t, data[pos:pos+plaintextByteLen])
			if err != nil {
				return nil, err
			}
			plaintexts[i] = p
			pos += plaintextByteLen
		default:
			return nil, herrors.New(herrors.CorruptedData, "unknown plaintext tag byte %d at entry %d", tag, i)
		}
	}

	if pos != len(data) {
		return nil, herrors.New(herrors.CorruptedData, "processed-database buffer has %d trailing bytes", len(data)-pos)
	}

	return &ProcessedDatabase{Params: params, Plaintexts: plaintexts}, nil
}

// SerializationByteCount estimates MarshalBinary's output size up front, so
// callers writing a database to disk can pre-size a buffer instead of
// growing one append at a time.
func (db *ProcessedDatabase) SerializationByteCount() int {
	t := db.Params.RLWEParams.T()
	n := db.Params.RLWEParams.N()
	fullLen := len(bfv.NewPlaintext(n).MarshalBinary(t))

	size := 1 + 4
	for _, p := range db.Plaintexts {
		if p == nil {
			size++
		} else {
			size += 1 + fullLen
		}
	}
	return size
}
