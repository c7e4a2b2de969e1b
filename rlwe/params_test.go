package rlwe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heprivacy/hepir/rlwe"
)

func TestPresetsValidate(t *testing.T) {
	for _, name := range []rlwe.PresetParametersLiteral{rlwe.PresetSmall, rlwe.PresetMedium, rlwe.PresetLarge} {
		lit, err := rlwe.Preset(name)
		require.NoError(t, err)
		_, err = rlwe.NewEncryptionParameters(lit)
		require.NoError(t, err)
	}
}

func TestPresetUnknownNameErrors(t *testing.T) {
	_, err := rlwe.Preset("nonexistent")
	require.Error(t, err)
}
