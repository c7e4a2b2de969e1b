package bfv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heprivacy/hepir/bfv"
	"github.com/heprivacy/hepir/rlwe"
)

func testParams(t *testing.T) rlwe.EncryptionParameters {
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

func newTestContext(t *testing.T) (*rlwe.Context, *rlwe.SecretKey) {
	t.Helper()
	params := testParams(t)
	ctx, err := rlwe.NewContext(params)
	require.NoError(t, err)
	seed, err := rlwe.NewSeed()
	require.NoError(t, err)
	sk, err := rlwe.GenerateSecretKey(ctx, seed)
	require.NoError(t, err)
	return ctx, sk
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	ctx, sk := newTestContext(t)
	enc := bfv.NewEncoder(ctx)
	encryptor := bfv.NewEncryptor(ctx, sk)
	decryptor := bfv.NewDecryptor(ctx, sk)

	values := make([]uint64, ctx.Params.N())
	for i := range values {
		values[i] = uint64(i) % ctx.Params.T()
	}

	pt, err := enc.Encode(values)
	require.NoError(t, err)

	ct, err := encryptor.EncryptNew(pt)
	require.NoError(t, err)
	require.True(t, ct.IsSeeded())

	decoded, err := decryptor.Decrypt(ct)
	require.NoError(t, err)
	got := enc.Decode(decoded)
	require.Equal(t, values, got)
}

func TestAddPlainRoundTrip(t *testing.T) {
	ctx, sk := newTestContext(t)
	enc := bfv.NewEncoder(ctx)
	encryptor := bfv.NewEncryptor(ctx, sk)
	decryptor := bfv.NewDecryptor(ctx, sk)
	evaluator := bfv.NewEvaluator(ctx, nil)

	N := ctx.Params.N()
	a := make([]uint64, N)
	b := make([]uint64, N)
	for i := 0; i < N; i++ {
		a[i] = 3
		b[i] = 4
	}

	ptA, err := enc.Encode(a)
	require.NoError(t, err)
	ptB, err := enc.Encode(b)
	require.NoError(t, err)

	ctA, err := encryptor.EncryptNew(ptA)
	require.NoError(t, err)

	sum, err := evaluator.AddPlain(ctA, ptB)
	require.NoError(t, err)

	decoded, err := decryptor.Decrypt(sum)
	require.NoError(t, err)
	got := enc.Decode(decoded)
	for i := 0; i < N; i++ {
		require.Equal(t, uint64(7), got[i])
	}
}

func TestMulPlainRoundTrip(t *testing.T) {
	ctx, sk := newTestContext(t)
	enc := bfv.NewEncoder(ctx)
	encryptor := bfv.NewEncryptor(ctx, sk)
	decryptor := bfv.NewDecryptor(ctx, sk)
	evaluator := bfv.NewEvaluator(ctx, nil)

	N := ctx.Params.N()
	a := make([]uint64, N)
	b := make([]uint64, N)
	for i := 0; i < N; i++ {
		a[i] = 5
		b[i] = 6
	}

	ptA, err := enc.Encode(a)
	require.NoError(t, err)
	ptB, err := enc.Encode(b)
	require.NoError(t, err)

	ctA, err := encryptor.EncryptNew(ptA)
	require.NoError(t, err)

	prod, err := evaluator.MulPlain(ctA, ptB)
	require.NoError(t, err)

	decoded, err := decryptor.Decrypt(prod)
	require.NoError(t, err)
	got := enc.Decode(decoded)
	for i := 0; i < N; i++ {
		require.Equal(t, uint64(30), got[i])
	}
}

func TestIsTransparentFreshCiphertextIsNot(t *testing.T) {
	ctx, sk := newTestContext(t)
	enc := bfv.NewEncoder(ctx)
	encryptor := bfv.NewEncryptor(ctx, sk)

	values := make([]uint64, ctx.Params.N())
	pt, err := enc.Encode(values)
	require.NoError(t, err)
	ct, err := encryptor.EncryptNew(pt)
	require.NoError(t, err)

	transparent, err := ct.IsTransparent(ctx)
	require.NoError(t, err)
	require.False(t, transparent)
}
