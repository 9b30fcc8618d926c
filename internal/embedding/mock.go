package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// Mock is a deterministic embedder for tests: the vector is seeded from an
// FNV hash of the text and normalized to unit length, so identical texts get
// identical vectors and different texts almost certainly do not.
type Mock struct {
	dims int
}

// NewMock returns a mock embedder. dims <= 0 selects 384.
func NewMock(dims int) *Mock {
	if dims <= 0 {
		dims = 384
	}
	return &Mock{dims: dims}
}

func (m *Mock) Dims() int { return m.dims }

func (m *Mock) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vector(text)
	}
	return vectors, nil
}

func (m *Mock) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	return m.vector(text), nil
}

func (m *Mock) vector(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dims)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed>>11))/float64(1<<52) - 1 // roughly [-1, 1)
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
