package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestNewSourceIsDeterministic(t *testing.T) {
	first := NewSource(42)
	second := NewSource(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, first.Uint64(), second.Uint64())
	}
}

func TestReseedingSourceFollowsSeedUntilInterval(t *testing.T) {
	src := newReseedingSource(0)
	src.Seed(9)
	pcg := &rand.PCGSource{}
	pcg.Seed(9)

	for i := 0; i < 1000; i++ {
		require.Equal(t, pcg.Uint64(), src.Uint64())
	}
	assert.Equal(t, uint64(1000), src.draws)
}

func TestReseedingSourceResetsDrawCount(t *testing.T) {
	src := newReseedingSource(4)
	seen := make(map[uint64]bool)
	for i := 0; i < 20; i++ {
		seen[src.Uint64()] = true
		require.LessOrEqual(t, src.draws, uint64(4))
	}
	// output keeps varying across reseeds
	assert.Greater(t, len(seen), 1)

	src.Seed(1)
	assert.Zero(t, src.draws)
}

func TestUniformPick(t *testing.T) {
	src := NewSource(5)
	assert.Equal(t, "only", uniformPick(src, []string{"only"}))

	candidates := []int{3, 7, 11}
	counts := make(map[int]int)
	trials := 9000
	for i := 0; i < trials; i++ {
		counts[uniformPick(src, candidates)] += 1
	}
	require.Len(t, counts, 3)
	for _, c := range candidates {
		assert.InDelta(t, trials/3, counts[c], float64(trials)/20, "candidate %d", c)
	}
}
