package pir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heprivacy/hepir/pir"
	"github.com/heprivacy/hepir/rlwe"
)

func testRLWEParams(t *testing.T) rlwe.EncryptionParameters {
	t.Helper()
	params, err := rlwe.NewEncryptionParameters(rlwe.EncryptionParametersLiteral{
		LogN:          12,
		T:             65537,
		Q:             []uint64{1152921504606830593, 1152921504606748673},
		SecurityLevel: rlwe.SecurityUnchecked,
	})
	require.NoError(t, err)
	return params
}

func TestQueryRoundTripOneDimension(t *testing.T) {
	rlweParams := testRLWEParams(t)
	ctx, err := rlwe.NewContext(rlweParams)
	require.NoError(t, err)

	entryCount := 8
	entrySize := 4
	params, err := pir.NewParameters(rlweParams, entryCount, entrySize, 1, pir.OneDimension, 1, false, pir.NoCompression)
	require.NoError(t, err)
	require.Len(t, params.Dimensions, 1)

	entries := make([][]byte, entryCount)
	for i := range entries {
		entries[i] = []byte{byte(i), byte(i * 2), byte(i * 3), byte(i * 5)}
	}

	db, err := pir.ProcessDatabase(ctx, params, entries)
	require.NoError(t, err)

	client, err := pir.NewClient(ctx, params)
	require.NoError(t, err)
	seed, err := rlwe.NewSeed()
	require.NoError(t, err)
	ek, err := client.GenerateEvaluationKey(seed)
	require.NoError(t, err)

	server := pir.NewServer(ctx, db, ek)

	target := 5
	query, err := client.Query(target)
	require.NoError(t, err)

	responses, err := server.Answer(query)
	require.NoError(t, err)
	require.Len(t, responses, 1)

	got, err := client.DecodeEntry(responses[0], 0)
	require.NoError(t, err)
	require.Equal(t, entries[target], got)
}

func TestSelectDimensionsPrefersTwoD(t *testing.T) {
	rlweParams := testRLWEParams(t)
	params, err := pir.NewParameters(rlweParams, 100, 24, 2, pir.AutoDimensions, 1, true, pir.NoCompression)
	require.NoError(t, err)
	require.Len(t, params.Dimensions, 2)
}

func TestForcedDimensionCountOverridesAutoSelection(t *testing.T) {
	rlweParams := testRLWEParams(t)

	forced, err := pir.NewParameters(rlweParams, 8, 4, 1, pir.OneDimension, 1, false, pir.NoCompression)
	require.NoError(t, err)
	require.Equal(t, []int{8}, forced.Dimensions)

	auto, err := pir.NewParameters(rlweParams, 8, 4, 1, pir.AutoDimensions, 1, false, pir.NoCompression)
	require.NoError(t, err)
	require.Len(t, auto.Dimensions, 2)
}

func TestBatchedQueryRoundTrip(t *testing.T) {
	rlweParams := testRLWEParams(t)
	ctx, err := rlwe.NewContext(rlweParams)
	require.NoError(t, err)

	entryCount := 8
	entrySize := 4
	batchSize := 3
	params, err := pir.NewParameters(rlweParams, entryCount, entrySize, 1, pir.OneDimension, batchSize, false, pir.NoCompression)
	require.NoError(t, err)

	entries := make([][]byte, entryCount)
	for i := range entries {
		entries[i] = []byte{byte(i), byte(i * 2), byte(i * 3), byte(i * 5)}
	}

	db, err := pir.ProcessDatabase(ctx, params, entries)
	require.NoError(t, err)

	client, err := pir.NewClient(ctx, params)
	require.NoError(t, err)
	seed, err := rlwe.NewSeed()
	require.NoError(t, err)
	ek, err := client.GenerateEvaluationKey(seed)
	require.NoError(t, err)

	server := pir.NewServer(ctx, db, ek)

	targets := []int{1, 4, 6}
	query, err := client.Query(targets...)
	require.NoError(t, err)

	responses, err := server.Answer(query)
	require.NoError(t, err)
	require.Len(t, responses, batchSize)

	for i, target := range targets {
		got, err := client.DecodeEntry(responses[i], 0)
		require.NoError(t, err)
		require.Equal(t, entries[target], got)
	}
}

func TestQueryRejectsBatchLargerThanParams(t *testing.T) {
	rlweParams := testRLWEParams(t)
	params, err := pir.NewParameters(rlweParams, 8, 4, 1, pir.OneDimension, 1, false, pir.NoCompression)
	require.NoError(t, err)

	ctx, err := rlwe.NewContext(rlweParams)
	require.NoError(t, err)
	client, err := pir.NewClient(ctx, params)
	require.NoError(t, err)

	_, err = client.Query(0, 1)
	require.Error(t, err)
}

func TestMaxCompressionRoundTrip(t *testing.T) {
	rlweParams := testRLWEParams(t)
	ctx, err := rlwe.NewContext(rlweParams)
	require.NoError(t, err)

	entryCount := 8
	entrySize := 4
	params, err := pir.NewParameters(rlweParams, entryCount, entrySize, 1, pir.OneDimension, 1, false, pir.MaxCompression)
	require.NoError(t, err)

	uncompressed, err := pir.NewParameters(rlweParams, entryCount, entrySize, 1, pir.OneDimension, 1, false, pir.NoCompression)
	require.NoError(t, err)
	require.Less(t, len(params.GaloisElements()), len(uncompressed.GaloisElements()))

	entries := make([][]byte, entryCount)
	for i := range entries {
		entries[i] = []byte{byte(i), byte(i * 2), byte(i * 3), byte(i * 5)}
	}

	db, err := pir.ProcessDatabase(ctx, params, entries)
	require.NoError(t, err)

	client, err := pir.NewClient(ctx, params)
	require.NoError(t, err)
	seed, err := rlwe.NewSeed()
	require.NoError(t, err)
	ek, err := client.GenerateEvaluationKey(seed)
	require.NoError(t, err)

	server := pir.NewServer(ctx, db, ek)

	target := 3
	query, err := client.Query(target)
	require.NoError(t, err)

	responses, err := server.Answer(query)
	require.NoError(t, err)

	got, err := client.DecodeEntry(responses[0], 0)
	require.NoError(t, err)
	require.Equal(t, entries[target], got)
}
