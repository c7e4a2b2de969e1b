package rlwe_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/heprivacy/hepir/rlwe"
)

func TestEvaluationKeyMarshalRoundTrip(t *testing.T) {
	ctx, err := rlwe.NewContext(testParams(t))
	require.NoError(t, err)

	seed, err := rlwe.NewSeed()
	require.NoError(t, err)
	sk, err := rlwe.GenerateSecretKey(ctx, seed)
	require.NoError(t, err)

	elements := []uint64{3, 5}
	ek, err := rlwe.GenEvaluationKey(ctx, sk, elements, seed)
	require.NoError(t, err)

	data, err := ek.MarshalBinary(ctx)
	require.NoError(t, err)

	got, err := rlwe.UnmarshalEvaluationKey(ctx, ctx.RingQ.Level(), data)
	require.NoError(t, err)
	require.Len(t, got.GaloisKeys, len(ek.GaloisKeys))
	require.NotNil(t, got.RelinKey)
	for _, g := range elements {
		want, err := ek.GaloisKeyFor(g)
		require.NoError(t, err)
		gotKsk, err := got.GaloisKeyFor(g)
		require.NoError(t, err)
		require.Len(t, gotKsk.Keys, len(want.Keys))
		for i := range want.Keys {
			if diff := cmp.Diff(want.Keys[i].Value[0].Coeffs, gotKsk.Keys[i].Value[0].Coeffs); diff != "" {
				t.Errorf("galois element %d digit %d first polynomial mismatch (-want +got):\n%s", g, i, diff)
			}
			if diff := cmp.Diff(want.Keys[i].Value[1].Coeffs, gotKsk.Keys[i].Value[1].Coeffs); diff != "" {
				t.Errorf("galois element %d digit %d second polynomial mismatch (-want +got):\n%s", g, i, diff)
			}
		}
	}
}

func TestUnmarshalEvaluationKeyRejectsShortBuffer(t *testing.T) {
	ctx, err := rlwe.NewContext(testParams(t))
	require.NoError(t, err)

	_, err = rlwe.UnmarshalEvaluationKey(ctx, ctx.RingQ.Level(), []byte{1, 2})
	require.Error(t, err)
}
