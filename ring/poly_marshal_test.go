package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolyMarshalRoundTrip(t *testing.T) {
	N := 32
	ctx := testContext(t, N)

	seed := [32]byte{9, 9, 9}
	p := NewUniformSampler(ctx, seed).ReadNew()

	data, err := ctx.MarshalBinary(p)
	require.NoError(t, err)
	require.Len(t, data, ctx.ByteLen())

	got, err := ctx.UnmarshalBinary(data, Coeff)
	require.NoError(t, err)
	require.True(t, ctx.Equal(p, got))
}

func TestPolyUnmarshalRejectsShortBuffer(t *testing.T) {
	N := 32
	ctx := testContext(t, N)

	_, err := ctx.UnmarshalBinary(make([]byte, ctx.ByteLen()-1), Coeff)
	require.Error(t, err)
}
