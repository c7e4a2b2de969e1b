package keywordpir

import (
	"sort"

	"golang.org/x/exp/constraints"

	"github.com/heprivacy/hepir/herrors"
)

// max2 is a small generic maximum, following the shape of lattigo's own
// constraints.Ordered-based generic helpers (utils/structs) from before
// Go's builtin min/max covered this case for every ordered type.
func max2[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// cuckooSlot is one occupied position in a CuckooTable.
type cuckooSlot struct {
	keyword []byte
	value   []byte
}

// CuckooTable assigns every (keyword, value) pair to exactly one of its
// numHashFunctions candidate buckets, chosen at construction time by greedy
// placement with eviction. Buckets hold up to bucketCapacity items, so a
// single hash function per keyword already gives reasonable load balancing;
// the extra candidate buckets (and the eviction they enable) push the
// maximum bucket occupancy down further, which is what keeps the PIR
// database's fixed per-bucket entry size small.
//
// The table records only the final placement. A keyword's final bucket is
// data-dependent (it depends on eviction order over the whole input set),
// so nothing short of rebuilding the table can predict it; a client must
// therefore query every one of its numHashFunctions candidate buckets and
// look for a tag match in whichever response contains it.
type CuckooTable struct {
	buckets          [][]cuckooSlot
	numHashFunctions int
	bucketCapacity   int
}

// BuildCuckooTable places every entry into tableSize buckets of at most
// bucketCapacity items each, using numHashFunctions candidate positions per
// keyword and up to maxEvictions displacement steps to resolve collisions.
func BuildCuckooTable(entries map[string][]byte, numHashFunctions, tableSize, bucketCapacity, maxEvictions int) (*CuckooTable, error) {
	if numHashFunctions < 1 {
		return nil, herrors.New(herrors.InvalidParameter, "numHashFunctions must be at least 1")
	}
	if tableSize < 1 {
		return nil, herrors.New(herrors.InvalidParameter, "tableSize must be at least 1")
	}
	if bucketCapacity < 1 {
		return nil, herrors.New(herrors.InvalidParameter, "bucketCapacity must be at least 1")
	}

	table := &CuckooTable{
		buckets:          make([][]cuckooSlot, tableSize),
		numHashFunctions: numHashFunctions,
		bucketCapacity:   bucketCapacity,
	}

	// Insertion order drives eviction order when candidate buckets fill up,
	// so the final placement must not depend on Go's randomized map
	// iteration order: insert in sorted-keyword order instead, making the
	// table a pure function of entries.
	keywords := make([]string, 0, len(entries))
	for keyword := range entries {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)

	for _, keyword := range keywords {
		if err := table.insert([]byte(keyword), entries[keyword], maxEvictions); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// insert places (keyword, value), evicting an existing occupant of a
// candidate bucket and re-homing it when every candidate bucket is full.
func (t *CuckooTable) insert(keyword, value []byte, maxEvictions int) error {
	current := cuckooSlot{keyword: keyword, value: value}

	for attempt := 0; attempt <= maxEvictions; attempt++ {
		positions := t.candidatePositions(current.keyword)

		for _, pos := range positions {
			if len(t.buckets[pos]) < t.bucketCapacity {
				t.buckets[pos] = append(t.buckets[pos], current)
				return nil
			}
		}

		evictPos := positions[attempt%len(positions)]
		evicted := t.buckets[evictPos][0]
		t.buckets[evictPos] = append(t.buckets[evictPos][:0], t.buckets[evictPos][1:]...)
		t.buckets[evictPos] = append(t.buckets[evictPos], current)
		current = evicted
	}

	return herrors.New(herrors.FailedToConstructCuckoo, "could not place keyword %q after %d evictions", string(current.keyword), maxEvictions)
}

// candidatePositions returns keyword's numHashFunctions candidate bucket
// indices, one per independent hash function.
func (t *CuckooTable) candidatePositions(keyword []byte) []int {
	return CandidatePositions(keyword, t.numHashFunctions, len(t.buckets))
}

// CandidatePositions returns keyword's numHashFunctions candidate bucket
// indices for a table of tableSize buckets. Exported so a client, which
// never builds a CuckooTable itself, can compute the same positions the
// server used when placing entries.
func CandidatePositions(keyword []byte, numHashFunctions, tableSize int) []int {
	positions := make([]int, numHashFunctions)
	for j := 0; j < numHashFunctions; j++ {
		h := hashKeyword(keyword, j)
		positions[j] = int(doubleModIndex(h, uint64(tableSize)))
	}
	return positions
}

// BucketAt returns the slots occupying a given bucket index.
func (t *CuckooTable) BucketAt(index int) []cuckooSlot {
	return t.buckets[index]
}

// TableSize returns the number of buckets in the table.
func (t *CuckooTable) TableSize() int {
	return len(t.buckets)
}

// MaxOccupancy returns the largest number of items in any single bucket,
// useful for sizing the fixed per-bucket serialization capacity.
func (t *CuckooTable) MaxOccupancy() int {
	occupancy := 0
	for _, b := range t.buckets {
		occupancy = max2(occupancy, len(b))
	}
	return occupancy
}

// nextPowerOfTwoAtLeast returns the smallest power of two >= n.
func nextPowerOfTwoAtLeast(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
