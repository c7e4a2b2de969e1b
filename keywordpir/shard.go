package keywordpir

import (
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// hashKeyword derives a 64-bit hash of keyword, domain-separated by label so
// the same keyword produces independent-looking hashes for different
// purposes (one per cuckoo candidate-bucket hash function). This is an
// internal placement detail of a single database instance, not part of any
// wire format, so it is free to use blake2b rather than the sha256 fixed by
// the hash-bucket and sharding-function wire formats.
func hashKeyword(keyword []byte, label int) uint64 {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	h.Write([]byte{byte(label), byte(label >> 8)})
	h.Write(keyword)
	sum := h.Sum(nil)
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(sum[i])
	}
	return v
}

// doubleModIndex reduces a 64-bit hash into [0, n) by first reducing it
// modulo n*n and then modulo n. Since n divides n*n, the result is the same
// as a single `h % n`, with the same modulo bias.
func doubleModIndex(h uint64, n uint64) uint64 {
	if n == 0 {
		return 0
	}
	wide := n * n
	if wide/n != n || wide == 0 {
		// n large enough that n*n overflows uint64: a single mod is
		// already unbiased enough relative to the 64-bit hash space.
		return h % n
	}
	return (h % wide) % n
}

// sha256Shard64 hashes keyword with SHA-256 and takes the first 8 bytes,
// big-endian, as a uint64 — the hash primitive the "sha256" sharding
// function names in the configuration surface.
func sha256Shard64(keyword []byte) uint64 {
	sum := sha256.Sum256(keyword)
	return binary.BigEndian.Uint64(sum[0:8])
}

// ShardIndex implements the "sha256" sharding function: it routes a keyword
// to one of numShards independent keyword-PIR database instances by
// reducing a SHA-256 digest of the keyword modulo numShards.
func ShardIndex(keyword []byte, numShards int) int {
	return int(sha256Shard64(keyword) % uint64(numShards))
}

// DoubleModShardIndex implements the "doubleMod(otherShardCount)" sharding
// function: the keyword's SHA-256 digest is first reduced modulo
// otherShardCount (a configured, independent shard-count space — typically
// a previous deployment's shard count, kept around so existing shard
// assignments are preserved when the cluster is resized), and that result
// is reduced again modulo numShards. This lets a cluster grow from
// otherShardCount to numShards shards while only the entries whose first
// reduction changed need to move.
func DoubleModShardIndex(keyword []byte, numShards, otherShardCount int) int {
	h := sha256Shard64(keyword)
	intermediate := h % uint64(otherShardCount)
	return int(intermediate % uint64(numShards))
}
