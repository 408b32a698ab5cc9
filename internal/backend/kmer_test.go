package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKmerDims(t *testing.T) {
	assert.Equal(t, 4, KmerDims(1))
	assert.Equal(t, 64, KmerDims(3))
}

func TestKmerVector(t *testing.T) {
	// "AAAA" has three overlapping AAA windows; everything lands in index 0.
	vec := KmerVector("AAAA", 3)
	require.Len(t, vec, 64)
	assert.Equal(t, float32(1), vec[0])
	for _, v := range vec[1:] {
		assert.Zero(t, v)
	}
}

func TestKmerVectorNormalized(t *testing.T) {
	vec := KmerVector("ACGTACGT", 3)
	var sum float32
	for _, v := range vec {
		sum += v
	}
	assert.InDelta(t, 1.0, float64(sum), 1e-5)
}

func TestKmerVectorAmbiguity(t *testing.T) {
	// Windows containing N are skipped entirely.
	vec := KmerVector("NNNN", 3)
	for _, v := range vec {
		assert.Zero(t, v)
	}

	// Too-short input yields the zero vector.
	vec = KmerVector("AC", 3)
	for _, v := range vec {
		assert.Zero(t, v)
	}

	// Lowercase and RNA (U) input count like their DNA equivalents.
	assert.Equal(t, KmerVector("ACGT", 3), KmerVector("acgu", 3))
}

func TestCosine(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	c := []float32{0, 1, 0}

	assert.InDelta(t, 1.0, Cosine(a, b), 1e-9)
	assert.InDelta(t, 0.0, Cosine(a, c), 1e-9)
	assert.Zero(t, Cosine(a, []float32{0, 0, 0}))
	assert.Zero(t, Cosine(a, []float32{1, 0}))
}
