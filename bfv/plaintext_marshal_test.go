package bfv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heprivacy/hepir/bfv"
)

func TestPlaintextMarshalRoundTrip(t *testing.T) {
	const t65537 = 65537
	pt := bfv.NewPlaintext(8)
	copy(pt.Coeffs, []uint64{0, 1, 2, 12345, 65536, 3, 4, 5})

	data := pt.MarshalBinary(t65537)
	got, err := bfv.UnmarshalPlaintext(8, t65537, data)
	require.NoError(t, err)
	require.Equal(t, pt.Coeffs, got.Coeffs)
}

func TestPlaintextUnmarshalRejectsShortBuffer(t *testing.T) {
	const t65537 = 65537
	_, err := bfv.UnmarshalPlaintext(8, t65537, []byte{0, 1})
	require.Error(t, err)
}
