package keywordpir

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/heprivacy/hepir/herrors"
)

// Slot is one serialized occupant of a bucket: a compact tag derived from
// the keyword (never the keyword itself, to keep bucket size independent of
// keyword length) and the associated value.
type Slot struct {
	Tag   uint64
	Value []byte
}

// keywordTag derives the tag a Slot stores for keyword: the first 8 bytes of
// SHA-256(keyword), interpreted big-endian, matching the wire format's
// `keyword_hash` field precisely (a bucket slot must be producible and
// checked by both the database builder and a client that never sees the
// cuckoo table, so the derivation has to be exactly reproducible from the
// keyword bytes alone, independent of any internal hash-function choices
// the cuckoo placement makes). Two different keywords collide in tag only
// with probability about 2^-64, which is the only source of a
// false-positive keyword match on the client.
func keywordTag(keyword []byte) uint64 {
	sum := sha256.Sum256(keyword)
	return binary.BigEndian.Uint64(sum[0:8])
}

// EncodeBucket serializes slots as: one length-prefix byte (slot count),
// then for each slot an 8-byte little-endian keyword hash, a 2-byte
// little-endian value length, and the value bytes, per the hash-bucket wire
// format (all integers little-endian). The caller is responsible for
// padding or rejecting the result against a fixed per-bucket byte budget,
// since every bucket in a database must serialize to the same size for the
// PIR layer's fixed entrySize.
func EncodeBucket(slots []cuckooSlot) ([]byte, error) {
	if len(slots) > 255 {
		return nil, herrors.New(herrors.InvalidParameter, "bucket holds %d slots, exceeds the 255 representable by a length-prefix byte", len(slots))
	}

	buf := make([]byte, 1, 1+len(slots)*10)
	buf[0] = byte(len(slots))

	for _, s := range slots {
		if len(s.value) > 0xFFFF {
			return nil, herrors.New(herrors.CorruptedData, "slot value of %d bytes exceeds the 16-bit length field", len(s.value))
		}
		var head [10]byte
		binary.LittleEndian.PutUint64(head[0:8], keywordTag(s.keyword))
		binary.LittleEndian.PutUint16(head[8:10], uint16(len(s.value)))
		buf = append(buf, head[:]...)
		buf = append(buf, s.value...)
	}
	return buf, nil
}

// DecodeBucket is EncodeBucket's inverse. Trailing zero padding (added to
// reach a fixed bucket byte budget) is tolerated since a real slot count
// byte can never be mistaken for it: the count byte is read first and only
// that many slots are parsed.
func DecodeBucket(data []byte) ([]Slot, error) {
	if len(data) < 1 {
		return nil, herrors.New(herrors.CorruptedData, "bucket shorter than the length-prefix byte")
	}
	count := int(data[0])
	pos := 1
	slots := make([]Slot, 0, count)

	for i := 0; i < count; i++ {
		if pos+10 > len(data) {
			return nil, herrors.New(herrors.CorruptedData, "bucket truncated before slot %d header", i)
		}
		tag := binary.LittleEndian.Uint64(data[pos : pos+8])
		size := int(binary.LittleEndian.Uint16(data[pos+8 : pos+10]))
		pos += 10
		if pos+size > len(data) {
			return nil, herrors.New(herrors.CorruptedData, "bucket truncated before slot %d value", i)
		}
		value := make([]byte, size)
		copy(value, data[pos:pos+size])
		pos += size
		slots = append(slots, Slot{Tag: tag, Value: value})
	}
	return slots, nil
}

// padBucket right-pads (or rejects an oversized) serialized bucket out to
// exactly size bytes with zeroes, matching the fixed entrySize every
// ProcessedDatabase row requires.
func padBucket(encoded []byte, size int) ([]byte, error) {
	if len(encoded) > size {
		return nil, herrors.New(herrors.InvalidParameter, "serialized bucket of %d bytes exceeds the fixed bucket size %d", len(encoded), size)
	}
	out := make([]byte, size)
	copy(out, encoded)
	return out, nil
}
