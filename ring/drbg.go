package ring

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
)

// blockSize is the AES block size in bytes.
const blockSize = aes.BlockSize // 16

// DRBG is a deterministic random byte generator keyed by a 32-byte seed,
// built on AES-128 in CTR mode: an infinite byte stream indexed by a
// 32-byte seed. Only the low 16 bytes of the seed key the AES-128 cipher;
// the remaining 16 bytes seed the initial counter block, so two distinct
// seeds never collide on the same keystream. This mirrors the shape of
// lattigo's ring.CRPGenerator/utils.PRNG "Clock([]byte)" interface
// (ring/prng.go) built on AES-128 directly instead of going through a
// third-party CSPRNG package.
//
// DRBG is not safe for concurrent use; callers needing concurrent streams
// from the same seed should each construct their own DRBG (or use Seek to
// fork a stream at an arbitrary block offset).
type DRBG struct {
	block   cipher.Block
	iv      [blockSize]byte
	counter uint64
}

// NewDRBG constructs a DRBG from a 32-byte seed.
func NewDRBG(seed [32]byte) *DRBG {
	block, err := aes.NewCipher(seed[:16])
	if err != nil {
		panic(err)
	}
	d := &DRBG{block: block}
	copy(d.iv[:], seed[16:32])
	return d
}

// counterBlock returns the CTR input block for the given counter value:
// the seed's IV half XORed with the big-endian counter in its low 8 bytes.
func (d *DRBG) counterBlock(counter uint64) [blockSize]byte {
	var blk [blockSize]byte
	copy(blk[:], d.iv[:])
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], counter)
	for i := 0; i < 8; i++ {
		blk[8+i] ^= ctr[i]
	}
	return blk
}

// Read fills p with the next len(p) bytes of the keystream, advancing the
// internal block counter by ceil(len(p)/16).
func (d *DRBG) Read(p []byte) (int, error) {
	n := len(p)
	var ks [blockSize]byte
	off := 0
	for off < n {
		blk := d.counterBlock(d.counter)
		d.block.Encrypt(ks[:], blk[:])
		d.counter++
		copy(p[off:], ks[:])
		off += blockSize
	}
	return n, nil
}

// Seek repositions the stream to begin at the given block counter, so the
// caller can jump directly to, e.g., the 1001st polynomial's worth of
// keystream without drawing every intermediate block.
func (d *DRBG) Seek(blockCounter uint64) {
	d.counter = blockCounter
}

// BlockCounter returns the current block counter (useful to compute how
// many blocks a given number of sampled polynomials consumed).
func (d *DRBG) BlockCounter() uint64 {
	return d.counter
}
