package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// HashProvider is a deterministic bag-of-words embedder used for offline
// operation and tests. Each token hashes to a bucket of a fixed-dimension
// vector, which is then L2-normalized. It is not a semantic model; real
// deployments configure an external provider and centroids built from it.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates a hash embedder with the given dimension.
func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashProvider{dimension: dimension}
}

// Generate implements Provider.
func (p *HashProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, p.dimension)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%p.dimension] += 1.0
	}
	normalize(vec)
	return vec, nil
}

// Version implements Provider.
func (p *HashProvider) Version() string { return "hash-v1" }

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func normalize(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
}
