package types

import (
	crand "crypto/rand"
	"encoding/binary"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// number of draws after which the default source picks a fresh seed
const reseedInterval = 1 << 16

// NewSource returns a deterministic source for reproducible runs
func NewSource(seed uint64) rand.Source {
	return rand.NewSource(seed)
}

// reseedingSource is a PCG source that replaces its seed with fresh
// entropy every interval draws
type reseedingSource struct {
	pcg      *rand.PCGSource
	draws    uint64
	interval uint64
}

var _ rand.Source = &reseedingSource{}

func newReseedingSource(interval uint64) *reseedingSource {
	s := &reseedingSource{
		pcg:      &rand.PCGSource{},
		interval: interval,
	}
	s.Seed(entropySeed())
	return s
}

func (s *reseedingSource) Uint64() uint64 {
	if s.interval > 0 && s.draws >= s.interval {
		s.pcg.Seed(entropySeed())
		s.draws = 0
	}
	s.draws += 1
	return s.pcg.Uint64()
}

func (s *reseedingSource) Seed(seed uint64) {
	s.pcg.Seed(seed)
	s.draws = 0
}

func entropySeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// uniformPick draws one of the candidates with equal probability.
// candidates must not be empty
func uniformPick[T any](src rand.Source, candidates []T) T {
	if len(candidates) == 1 {
		return candidates[0]
	}
	weights := make([]float64, len(candidates))
	for i := range weights {
		weights[i] = 1
	}
	i, ok := sampleuv.NewWeighted(weights, src).Take()
	if !ok {
		return candidates[0]
	}
	return candidates[i]
}
