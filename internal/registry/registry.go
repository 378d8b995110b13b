/*
Package registry defines the capability domains (namespaces), their callable
tools, and the personality aggregate that owns the learned attention state.

Namespaces and tools are immutable after registration except for centroid
re-training, which happens offline. Registration order is preserved by the
repositories because it is the deterministic tie-break order used by the
decision engine when two candidates score identically.
*/
package registry

import (
	"strings"

	"github.com/khanglvm/intent-hub/internal/attention"
)

// Namespace is a named capability domain grouping related tools.
type Namespace struct {
	// Name uniquely identifies the namespace (e.g., "task", "timer").
	Name string `json:"name"`

	// Description is a short natural-language summary of the domain.
	Description string `json:"description"`

	// Keywords are surface terms associated with the domain.
	Keywords []string `json:"keywords,omitempty"`

	// Centroid is the semantic reference vector for the domain.
	Centroid []float32 `json:"centroid,omitempty"`
}

// Key implements embedding.Embeddable.
func (n *Namespace) Key() string { return n.Name }

// Vector implements embedding.Embeddable.
func (n *Namespace) Vector() []float32 { return n.Centroid }

// Tool is an invocable capability belonging to exactly one namespace.
type Tool struct {
	// Name is the tool's short name, unique within its namespace.
	Name string `json:"name"`

	// Namespace is the owning namespace's name.
	Namespace string `json:"namespace"`

	// Description is shown to the reasoning service as tool guidance.
	Description string `json:"description"`

	// Parameters is a JSON Schema object describing accepted arguments.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Keywords are surface terms associated with the tool.
	Keywords []string `json:"keywords,omitempty"`

	// Centroid is the semantic reference vector for the tool.
	Centroid []float32 `json:"centroid,omitempty"`
}

// FullName returns the globally unique "namespace.name" identifier.
func (t *Tool) FullName() string {
	return t.Namespace + "." + t.Name
}

// Key implements embedding.Embeddable.
func (t *Tool) Key() string { return t.FullName() }

// Vector implements embedding.Embeddable.
func (t *Tool) Vector() []float32 { return t.Centroid }

// SplitFullName splits "namespace.name" into its parts. The second return is
// empty when the input carries no namespace qualifier.
func SplitFullName(fullName string) (namespace, name string) {
	idx := strings.Index(fullName, ".")
	if idx < 0 {
		return "", fullName
	}
	return fullName[:idx], fullName[idx+1:]
}

// Personality aggregates the learned attention state for one user profile.
type Personality struct {
	// ID uniquely identifies the personality.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Attention holds the learned thresholds and statistics. It is the only
	// mutable part of the aggregate and is persisted with optimistic locking.
	Attention *attention.State `json:"attention"`
}
