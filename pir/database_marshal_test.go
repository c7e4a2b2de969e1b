package pir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/heprivacy/hepir/herrors"
	"github.com/heprivacy/hepir/pir"
	"github.com/heprivacy/hepir/rlwe"
)

func TestProcessedDatabaseMarshalRoundTrip(t *testing.T) {
	rlweParams := testRLWEParams(t)
	ctx, err := rlwe.NewContext(rlweParams)
	require.NoError(t, err)

	entryCount := 8
	entrySize := 4
	params, err := pir.NewParameters(rlweParams, entryCount, entrySize, 1, pir.AutoDimensions, 1, false, pir.NoCompression)
	require.NoError(t, err)

	entries := make([][]byte, entryCount)
	for i := range entries {
		entries[i] = []byte{byte(i), 0, 0, 0}
	}
	// leave one entry all-zero to exercise the nil-plaintext tag
	entries[0] = []byte{0, 0, 0, 0}

	db, err := pir.ProcessDatabase(ctx, params, entries)
	require.NoError(t, err)

	data, err := db.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, db.SerializationByteCount())

	got, err := pir.UnmarshalDatabase(params, data)
	require.NoError(t, err)
	require.Len(t, got.Plaintexts, len(db.Plaintexts))
	for i := range db.Plaintexts {
		if db.Plaintexts[i] == nil {
			require.Nil(t, got.Plaintexts[i])
			continue
		}
		if diff := cmp.Diff(db.Plaintexts[i].Coeffs, got.Plaintexts[i].Coeffs); diff != "" {
			t.Errorf("plaintext %d mismatch after round trip (-want +got):\n%s", i, diff)
		}
	}
}

func TestUnmarshalDatabaseRejectsVersionMismatch(t *testing.T) {
	rlweParams := testRLWEParams(t)
	params, err := pir.NewParameters(rlweParams, 4, 4, 1, pir.AutoDimensions, 1, false, pir.NoCompression)
	require.NoError(t, err)

	data := []byte{9, 0, 0, 0, 0}
	_, err = pir.UnmarshalDatabase(params, data)
	require.Error(t, err)
	herr, ok := err.(*herrors.Error)
	require.True(t, ok)
	require.Equal(t, herrors.InvalidDatabase, herr.Kind)
}

func TestUnmarshalDatabaseRejectsShortBuffer(t *testing.T) {
	rlweParams := testRLWEParams(t)
	params, err := pir.NewParameters(rlweParams, 4, 4, 1, pir.AutoDimensions, 1, false, pir.NoCompression)
	require.NoError(t, err)

	_, err = pir.UnmarshalDatabase(params, []byte{1, 0})
	require.Error(t, err)
}
