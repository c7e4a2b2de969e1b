package rlwe_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/heprivacy/hepir/ring"
	"github.com/heprivacy/hepir/rlwe"
)

// fillTestCoeffs writes distinct, non-zero values into every row of ct's
// polynomials so a round-trip comparison actually exercises the marshaled
// bytes rather than trivially matching on an all-zero fresh ciphertext.
func fillTestCoeffs(ct *rlwe.Ciphertext) {
	for i, p := range ct.Value {
		for r, row := range p.Coeffs {
			for j := range row {
				row[j] = uint64(i*1000+r*10+j) + 1
			}
		}
	}
}

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

func TestCiphertextMarshalSeededRoundTrip(t *testing.T) {
	ctx, err := rlwe.NewContext(testParams(t))
	require.NoError(t, err)

	ct, err := rlwe.NewCiphertext(ctx, 2, ctx.RingQ.Level())
	require.NoError(t, err)
	seed, err := rlwe.NewSeed()
	require.NoError(t, err)
	ct.Seed = &seed

	data, err := ct.MarshalBinary(ctx)
	require.NoError(t, err)
	require.Equal(t, byte(0), data[0])

	got, err := rlwe.UnmarshalCiphertext(ctx, ct.Level, 1, ring.Coeff, data)
	require.NoError(t, err)
	require.True(t, got.IsSeeded())
}

func TestCiphertextMarshalFullRoundTrip(t *testing.T) {
	ctx, err := rlwe.NewContext(testParams(t))
	require.NoError(t, err)

	ct, err := rlwe.NewCiphertext(ctx, 2, ctx.RingQ.Level())
	require.NoError(t, err)
	ct.CorrectionFactor = 3
	fillTestCoeffs(ct)

	data, err := ct.MarshalBinary(ctx)
	require.NoError(t, err)
	require.Equal(t, byte(1), data[0])

	got, err := rlwe.UnmarshalCiphertext(ctx, ct.Level, ct.Degree(), ring.Coeff, data)
	require.NoError(t, err)
	require.Equal(t, ct.CorrectionFactor, got.CorrectionFactor)
	require.Len(t, got.Value, len(ct.Value))
	for i := range ct.Value {
		if diff := cmp.Diff(ct.Value[i].Coeffs, got.Value[i].Coeffs); diff != "" {
			t.Errorf("polynomial %d mismatch after round trip (-want +got):\n%s", i, diff)
		}
	}

	estimate, err := rlwe.SerializationByteCount(ctx, ct.Level, ct.Degree(), false)
	require.NoError(t, err)
	require.Equal(t, estimate, len(data))
}

func TestCiphertextMarshalCompressedRoundTrip(t *testing.T) {
	ctx, err := rlwe.NewContext(testParams(t))
	require.NoError(t, err)

	ct, err := rlwe.NewCiphertext(ctx, 2, ctx.RingQ.Level())
	require.NoError(t, err)
	fillTestCoeffs(ct)

	skip := make([]uint32, len(ct.Value))
	for i := range skip {
		skip[i] = 4
		for _, row := range ct.Value[i].Coeffs {
			for j, v := range row {
				row[j] = v &^ 0xF
			}
		}
	}

	data, err := ct.MarshalBinaryCompressed(ctx, skip)
	require.NoError(t, err)

	got, err := rlwe.UnmarshalCiphertextCompressed(ctx, ct.Level, ct.Degree(), ring.Coeff, skip, data)
	require.NoError(t, err)
	require.Len(t, got.Value, len(ct.Value))
	for i := range ct.Value {
		if diff := cmp.Diff(ct.Value[i].Coeffs, got.Value[i].Coeffs); diff != "" {
			t.Errorf("polynomial %d mismatch after compressed round trip (-want +got):\n%s", i, diff)
		}
	}
}

func TestUnmarshalCiphertextRejectsEmptyBuffer(t *testing.T) {
	ctx, err := rlwe.NewContext(testParams(t))
	require.NoError(t, err)

	_, err = rlwe.UnmarshalCiphertext(ctx, ctx.RingQ.Level(), 1, ring.Coeff, nil)
	require.Error(t, err)
}

func TestUnmarshalCiphertextRejectsUnknownTag(t *testing.T) {
	ctx, err := rlwe.NewContext(testParams(t))
	require.NoError(t, err)

	_, err = rlwe.UnmarshalCiphertext(ctx, ctx.RingQ.Level(), 1, ring.Coeff, []byte{7, 0, 0})
	require.Error(t, err)
}
