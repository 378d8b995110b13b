/*
Package embedding defines the embedding provider boundary and the vector math
used by the decision engine.

Embedding generation itself is an external collaborator: the dispatcher only
requires that a provider is deterministic per model version. Centroids for
namespaces and tools are produced offline with the same provider.
*/
package embedding

import "context"

// Provider generates embedding vectors for text.
type Provider interface {
	// Generate returns the embedding vector for the given text.
	Generate(ctx context.Context, text string) ([]float32, error)

	// Version identifies the model version. Vectors from different versions
	// are not comparable and must not share a cache.
	Version() string
}

// Embeddable is implemented by entities that carry a semantic centroid
// vector. The decision engine scores candidates exclusively through this
// interface; whether a type participates in semantic scoring is decided at
// compile time, never by runtime type inspection.
type Embeddable interface {
	// Key is the unique name used for threshold and statistics lookups.
	Key() string

	// Vector is the entity's semantic centroid.
	Vector() []float32
}
