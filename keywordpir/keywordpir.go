// Package keywordpir implements keyword PIR: a client fetches the value
// associated with a keyword without revealing the keyword to the server,
// by hashing the whole keyword/value map into a cuckoo table of fixed-size
// buckets and running index PIR against that table.
//
// A keyword's final bucket is chosen at construction time (data-dependent,
// via eviction), so the client cannot predict it; it instead batches every
// candidate bucket into a single index PIR query and scans each of the
// server's per-bucket responses for a tag match.
package keywordpir

import (
	"github.com/heprivacy/hepir/herrors"
	"github.com/heprivacy/hepir/pir"
	"github.com/heprivacy/hepir/rlwe"
)

// CuckooSizing selects how BuildDatabase picks the cuckoo table's bucket
// count.
type CuckooSizing int

const (
	// AllowExpansion derives an initial table size from LoadFactor and
	// doubles it, retrying construction, until the entries fit or a 64x
	// entry-count ceiling is hit.
	AllowExpansion CuckooSizing = iota
	// FixedSize constructs the table at exactly FixedTableSize buckets
	// once; a construction failure (the entries don't fit at that size)
	// is returned to the caller as herrors.FailedToConstructCuckoo
	// rather than silently growing the table.
	FixedSize
)

// Config tunes the cuckoo table underlying a keyword PIR database.
type Config struct {
	NumHashFunctions int
	BucketCapacity   int
	MaxEvictions     int
	LoadFactor       float64 // target buckets-in-use fraction when sizing the table, used by AllowExpansion

	Sizing         CuckooSizing
	FixedTableSize int // bucket count used when Sizing == FixedSize

	// KeyCompression bounds how much Galois key material the client must
	// generate to expand its batched bucket queries.
	KeyCompression pir.KeyCompression
}

// DefaultConfig returns reasonable defaults: three candidate buckets per
// keyword, room for three collisions per bucket before the entry count
// must be reduced or the table grown, a conservative load factor, and
// AllowExpansion sizing.
func DefaultConfig() Config {
	return Config{
		NumHashFunctions: 3,
		BucketCapacity:   3,
		MaxEvictions:     200,
		LoadFactor:       0.9,
		Sizing:           AllowExpansion,
		KeyCompression:   pir.NoCompression,
	}
}

// Database is a keyword-PIR-ready database: a cuckoo table of keyword/value
// pairs, serialized bucket-by-bucket into a fixed-size index PIR database.
type Database struct {
	TableSize  int
	BucketSize int
	cfg        Config
	pirParams  *pir.Parameters
	pirDB      *pir.ProcessedDatabase
}

// BuildDatabase hashes entries into a cuckoo table per cfg and packs the
// result into an index PIR database, one bucket per PIR entry.
func BuildDatabase(ctx *rlwe.Context, entries map[string][]byte, cfg Config, maxPIRBatch int) (*Database, error) {
	if len(entries) == 0 {
		return nil, herrors.New(herrors.InvalidDatabase, "entries must be non-empty")
	}

	table, err := buildTable(entries, cfg)
	if err != nil {
		return nil, err
	}

	maxValueLen := 0
	for _, v := range entries {
		if len(v) > maxValueLen {
			maxValueLen = len(v)
		}
	}
	bucketSize := 1 + cfg.BucketCapacity*(10+maxValueLen)

	raw := make([][]byte, table.TableSize())
	for i := 0; i < table.TableSize(); i++ {
		encoded, err := EncodeBucket(table.BucketAt(i))
		if err != nil {
			return nil, err
		}
		padded, err := padBucket(encoded, bucketSize)
		if err != nil {
			return nil, err
		}
		raw[i] = padded
	}

	pirParams, err := pir.NewParameters(ctx.Params, len(raw), bucketSize, maxPIRBatch, pir.AutoDimensions, cfg.NumHashFunctions, false, cfg.KeyCompression)
	if err != nil {
		return nil, err
	}
	pirDB, err := pir.ProcessDatabase(ctx, pirParams, raw)
	if err != nil {
		return nil, err
	}

	return &Database{
		TableSize:  table.TableSize(),
		BucketSize: bucketSize,
		cfg:        cfg,
		pirParams:  pirParams,
		pirDB:      pirDB,
	}, nil
}

// buildTable constructs the cuckoo table per cfg.Sizing: AllowExpansion
// derives an initial size from LoadFactor and doubles it on construction
// failure (up to a 64x entry-count ceiling); FixedSize constructs at
// exactly cfg.FixedTableSize once and propagates any failure directly.
func buildTable(entries map[string][]byte, cfg Config) (*CuckooTable, error) {
	if cfg.Sizing == FixedSize {
		if cfg.FixedTableSize <= 0 {
			return nil, herrors.New(herrors.InvalidParameter, "FixedTableSize must be positive when Sizing is FixedSize")
		}
		table, err := BuildCuckooTable(entries, cfg.NumHashFunctions, cfg.FixedTableSize, cfg.BucketCapacity, cfg.MaxEvictions)
		if err != nil {
			return nil, herrors.Wrap(herrors.FailedToConstructCuckoo, err, "fixed table size %d does not fit %d entries", cfg.FixedTableSize, len(entries))
		}
		return table, nil
	}

	tableSize := nextPowerOfTwoAtLeast(int(float64(len(entries))/cfg.LoadFactor) + 1)
	for {
		table, err := BuildCuckooTable(entries, cfg.NumHashFunctions, tableSize, cfg.BucketCapacity, cfg.MaxEvictions)
		if err == nil {
			return table, nil
		}
		tableSize *= 2
		if tableSize > 64*len(entries) {
			return nil, herrors.Wrap(herrors.FailedToConstructCuckoo, err, "table size grew past 64x entry count without converging")
		}
	}
}

// Server answers keyword PIR queries against a Database.
type Server struct {
	pirServer *pir.Server
}

// NewServer builds a Server over db using ek for query expansion.
func NewServer(ctx *rlwe.Context, db *Database, ek *rlwe.EvaluationKey) *Server {
	return &Server{pirServer: pir.NewServer(ctx, db.pirDB, ek)}
}

// Answer answers a client's batched candidate-bucket index PIR query,
// returning one response ciphertext per bucket in the query, in order.
func (s *Server) Answer(query *rlwe.Ciphertext) ([]*rlwe.Ciphertext, error) {
	return s.pirServer.Answer(query)
}

// Client issues keyword PIR queries and decodes the server's responses.
type Client struct {
	cfg       Config
	tableSize int
	pirParams *pir.Parameters
	pirClient *pir.Client
}

// NewClient builds a Client for a database shaped like db (the client needs
// only the database's public shape, not its contents).
func NewClient(ctx *rlwe.Context, db *Database) (*Client, error) {
	pirClient, err := pir.NewClient(ctx, db.pirParams)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:       db.cfg,
		tableSize: db.TableSize,
		pirParams: db.pirParams,
		pirClient: pirClient,
	}, nil
}

// GenerateEvaluationKey exports the Galois keys the server needs to expand
// this client's queries.
func (c *Client) GenerateEvaluationKey(seed [32]byte) (*rlwe.EvaluationKey, error) {
	return c.pirClient.GenerateEvaluationKey(seed)
}

// Query packs every candidate bucket for a keyword into one batched index
// PIR ciphertext. The server answers it with one response ciphertext per
// bucket, in the same order; DecodeResult expects that slice back.
type Query struct {
	bucketIndices []int
	Ciphertext    *rlwe.Ciphertext
}

// Query returns the batched index PIR query needed to retrieve keyword's
// value: every distinct candidate bucket (candidate buckets that collide to
// the same index are queried only once) packed into a single ciphertext via
// plaintext-slot batching.
func (c *Client) Query(keyword []byte) (*Query, error) {
	positions := CandidatePositions(keyword, c.cfg.NumHashFunctions, c.tableSize)
	unique := dedupeInts(positions)

	plaintextIndices := make([]int, len(unique))
	for i, pos := range unique {
		plaintextIndices[i], _ = c.splitBucketIndex(pos)
	}

	ct, err := c.pirClient.Query(plaintextIndices...)
	if err != nil {
		return nil, err
	}
	return &Query{bucketIndices: unique, Ciphertext: ct}, nil
}

// splitBucketIndex maps a flat cuckoo bucket index to the (plaintext index,
// offset within that plaintext) pair ProcessDatabase packed it into.
func (c *Client) splitBucketIndex(bucketIdx int) (plaintextIdx, offset int) {
	perPT := c.pirParams.EntriesPerPlaintext
	return bucketIdx / perPT, bucketIdx % perPT
}

// DecodeResult decrypts the server's per-query responses (in the order
// Query returned them) and returns the value associated with keyword, or
// nil if keyword is absent from the database.
func (c *Client) DecodeResult(keyword []byte, query *Query, responses []*rlwe.Ciphertext) ([]byte, error) {
	if len(responses) < len(query.bucketIndices) {
		return nil, herrors.New(herrors.InvalidParameter, "got %d responses for %d queried buckets", len(responses), len(query.bucketIndices))
	}

	tag := keywordTag(keyword)
	for i, bucketIdx := range query.bucketIndices {
		_, offset := c.splitBucketIndex(bucketIdx)
		raw, err := c.pirClient.DecodeEntry(responses[i], offset)
		if err != nil {
			return nil, err
		}
		slots, err := DecodeBucket(raw)
		if err != nil {
			return nil, err
		}
		for _, s := range slots {
			if s.Tag == tag {
				return s.Value, nil
			}
		}
	}
	return nil, nil
}

func dedupeInts(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	return out
}
