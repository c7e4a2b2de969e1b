package keywordpir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heprivacy/hepir/keywordpir"
)

func TestShardIndexIsDeterministicAndInRange(t *testing.T) {
	keyword := []byte("shard-routing-keyword")
	first := keywordpir.ShardIndex(keyword, 16)
	require.Equal(t, first, keywordpir.ShardIndex(keyword, 16))
	require.GreaterOrEqual(t, first, 0)
	require.Less(t, first, 16)
}

func TestShardIndexSpreadsAcrossKeywords(t *testing.T) {
	seen := map[int]bool{}
	for i := 0; i < 64; i++ {
		keyword := []byte{byte(i), byte(i >> 8)}
		seen[keywordpir.ShardIndex(keyword, 8)] = true
	}
	require.Greater(t, len(seen), 1)
}

func TestDoubleModShardIndexInRange(t *testing.T) {
	keyword := []byte("grown-cluster-keyword")
	idx := keywordpir.DoubleModShardIndex(keyword, 32, 8)
	require.GreaterOrEqual(t, idx, 0)
	require.Less(t, idx, 32)
}
