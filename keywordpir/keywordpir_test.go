package keywordpir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heprivacy/hepir/keywordpir"
	"github.com/heprivacy/hepir/rlwe"
)

func testRLWEParams(t *testing.T) rlwe.EncryptionParameters {
	t.Helper()
	params, err := rlwe.NewEncryptionParameters(rlwe.EncryptionParametersLiteral{
		LogN:          12,
		T:             257,
		Q:             []uint64{1152921504606830593, 1152921504606748673},
		SecurityLevel: rlwe.SecurityUnchecked,
	})
	require.NoError(t, err)
	return params
}

func sampleEntries() map[string][]byte {
	return map[string][]byte{
		"alice":   []byte("alice-value-1234"),
		"bob":     []byte("bob-value-56789a"),
		"charlie": []byte("charlie-value-bc"),
		"dave":    []byte("dave-value-defgh"),
		"erin":    []byte("erin-value-ijklm"),
	}
}

func TestMissingKeywordReturnsNil(t *testing.T) {
	rlweParams := testRLWEParams(t)
	ctx, err := rlwe.NewContext(rlweParams)
	require.NoError(t, err)

	cfg := keywordpir.DefaultConfig()
	db, err := keywordpir.BuildDatabase(ctx, sampleEntries(), cfg, 1)
	require.NoError(t, err)

	client, err := keywordpir.NewClient(ctx, db)
	require.NoError(t, err)
	seed, err := rlwe.NewSeed()
	require.NoError(t, err)
	ek, err := client.GenerateEvaluationKey(seed)
	require.NoError(t, err)

	server := keywordpir.NewServer(ctx, db, ek)

	keyword := []byte("nonexistent-keyword")
	query, err := client.Query(keyword)
	require.NoError(t, err)

	responses, err := server.Answer(query.Ciphertext)
	require.NoError(t, err)

	value, err := client.DecodeResult(keyword, query, responses)
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestQueryRoundTripFindsValue(t *testing.T) {
	rlweParams := testRLWEParams(t)
	ctx, err := rlwe.NewContext(rlweParams)
	require.NoError(t, err)

	entries := sampleEntries()
	cfg := keywordpir.DefaultConfig()
	db, err := keywordpir.BuildDatabase(ctx, entries, cfg, 1)
	require.NoError(t, err)

	client, err := keywordpir.NewClient(ctx, db)
	require.NoError(t, err)
	seed, err := rlwe.NewSeed()
	require.NoError(t, err)
	ek, err := client.GenerateEvaluationKey(seed)
	require.NoError(t, err)

	server := keywordpir.NewServer(ctx, db, ek)

	for keyword, expected := range entries {
		query, err := client.Query([]byte(keyword))
		require.NoError(t, err)

		responses, err := server.Answer(query.Ciphertext)
		require.NoError(t, err)

		got, err := client.DecodeResult([]byte(keyword), query, responses)
		require.NoError(t, err)
		require.Equal(t, expected, got)
	}
}

func TestBucketCountIsDeterministicAcrossBuilds(t *testing.T) {
	rlweParams := testRLWEParams(t)
	ctx, err := rlwe.NewContext(rlweParams)
	require.NoError(t, err)
	cfg := keywordpir.DefaultConfig()

	entries := sampleEntries()

	dbA, err := keywordpir.BuildDatabase(ctx, entries, cfg, 1)
	require.NoError(t, err)

	dbB, err := keywordpir.BuildDatabase(ctx, entries, cfg, 1)
	require.NoError(t, err)

	require.Equal(t, dbA.TableSize, dbB.TableSize)
	require.Equal(t, dbA.BucketSize, dbB.BucketSize)

	tableA, err := keywordpir.BuildCuckooTable(entries, cfg.NumHashFunctions, dbA.TableSize, cfg.BucketCapacity, cfg.MaxEvictions)
	require.NoError(t, err)
	tableB, err := keywordpir.BuildCuckooTable(entries, cfg.NumHashFunctions, dbA.TableSize, cfg.BucketCapacity, cfg.MaxEvictions)
	require.NoError(t, err)

	require.Equal(t, tableA.TableSize(), tableB.TableSize())
	for i := 0; i < tableA.TableSize(); i++ {
		encodedA, err := keywordpir.EncodeBucket(tableA.BucketAt(i))
		require.NoError(t, err)
		encodedB, err := keywordpir.EncodeBucket(tableB.BucketAt(i))
		require.NoError(t, err)
		require.Equal(t, encodedA, encodedB, "bucket %d differs between identically-built tables", i)
	}
}

func TestFixedSizeCuckooSizingPropagatesFailure(t *testing.T) {
	rlweParams := testRLWEParams(t)
	ctx, err := rlwe.NewContext(rlweParams)
	require.NoError(t, err)

	cfg := keywordpir.DefaultConfig()
	cfg.Sizing = keywordpir.FixedSize
	cfg.FixedTableSize = 1
	cfg.MaxEvictions = 4

	_, err = keywordpir.BuildDatabase(ctx, sampleEntries(), cfg, 1)
	require.Error(t, err)
}

func TestFixedSizeCuckooSizingBuildsAtExactTableSize(t *testing.T) {
	rlweParams := testRLWEParams(t)
	ctx, err := rlwe.NewContext(rlweParams)
	require.NoError(t, err)

	cfg := keywordpir.DefaultConfig()
	cfg.Sizing = keywordpir.FixedSize
	cfg.FixedTableSize = 64

	db, err := keywordpir.BuildDatabase(ctx, sampleEntries(), cfg, 1)
	require.NoError(t, err)
	require.Equal(t, 64, db.TableSize)
}

func TestEncodeDecodeBucketRoundTrip(t *testing.T) {
	rlweParams := testRLWEParams(t)
	ctx, err := rlwe.NewContext(rlweParams)
	require.NoError(t, err)
	_ = ctx

	cfg := keywordpir.DefaultConfig()
	table, err := keywordpir.BuildCuckooTable(sampleEntries(), cfg.NumHashFunctions, 16, cfg.BucketCapacity, cfg.MaxEvictions)
	require.NoError(t, err)

	for i := 0; i < table.TableSize(); i++ {
		encoded, err := keywordpir.EncodeBucket(table.BucketAt(i))
		require.NoError(t, err)
		decoded, err := keywordpir.DecodeBucket(encoded)
		require.NoError(t, err)
		require.Len(t, decoded, len(table.BucketAt(i)))
	}
}
