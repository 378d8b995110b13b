package registry

import (
	"context"
	"fmt"
	"sync"
)

// NamespaceRepository provides read access to registered namespaces.
type NamespaceRepository interface {
	// FindAll returns every namespace in registration order.
	FindAll(ctx context.Context) ([]*Namespace, error)
}

// ToolRepository provides read access to registered tools.
type ToolRepository interface {
	// FindAll returns every tool in registration order.
	FindAll(ctx context.Context) ([]*Tool, error)

	// FindByNamespace returns the namespace's tools in registration order.
	FindByNamespace(ctx context.Context, namespace string) ([]*Tool, error)
}

// PersonalityRepository provides access to personality aggregates.
type PersonalityRepository interface {
	// GetActive returns the currently active personality, or nil if none.
	GetActive(ctx context.Context) (*Personality, error)

	// Save persists a personality aggregate.
	Save(ctx context.Context, p *Personality) error
}

// MemoryRegistry is an in-memory implementation of the namespace and tool
// repositories. Registration order is preserved.
type MemoryRegistry struct {
	mu         sync.RWMutex
	namespaces []*Namespace
	tools      []*Tool
	byName     map[string]*Namespace
	byFullName map[string]*Tool
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byName:     make(map[string]*Namespace),
		byFullName: make(map[string]*Tool),
	}
}

// AddNamespace registers a namespace. Names must be unique.
func (r *MemoryRegistry) AddNamespace(n *Namespace) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[n.Name]; exists {
		return fmt.Errorf("namespace %q already registered", n.Name)
	}

	r.namespaces = append(r.namespaces, n)
	r.byName[n.Name] = n
	return nil
}

// AddTool registers a tool under an existing namespace.
func (r *MemoryRegistry) AddTool(t *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[t.Namespace]; !exists {
		return fmt.Errorf("tool %q references unknown namespace %q", t.Name, t.Namespace)
	}
	if _, exists := r.byFullName[t.FullName()]; exists {
		return fmt.Errorf("tool %q already registered", t.FullName())
	}

	r.tools = append(r.tools, t)
	r.byFullName[t.FullName()] = t
	return nil
}

// FindAll implements NamespaceRepository.
func (r *MemoryRegistry) FindAll(ctx context.Context) ([]*Namespace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Namespace, len(r.namespaces))
	copy(out, r.namespaces)
	return out, nil
}

// FindAllTools returns every registered tool in registration order.
func (r *MemoryRegistry) FindAllTools(ctx context.Context) ([]*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tool, len(r.tools))
	copy(out, r.tools)
	return out, nil
}

// FindByNamespace returns the tools owned by the given namespace.
func (r *MemoryRegistry) FindByNamespace(ctx context.Context, namespace string) ([]*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Tool
	for _, t := range r.tools {
		if t.Namespace == namespace {
			out = append(out, t)
		}
	}
	return out, nil
}

// ToolByFullName looks up a tool by its "namespace.name" identifier.
func (r *MemoryRegistry) ToolByFullName(fullName string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byFullName[fullName]
	return t, ok
}

// toolRepoAdapter exposes MemoryRegistry through the ToolRepository interface
// without the name clash between namespace FindAll and tool FindAll.
type toolRepoAdapter struct{ reg *MemoryRegistry }

// Tools returns a ToolRepository view of the registry.
func (r *MemoryRegistry) Tools() ToolRepository { return &toolRepoAdapter{reg: r} }

func (a *toolRepoAdapter) FindAll(ctx context.Context) ([]*Tool, error) {
	return a.reg.FindAllTools(ctx)
}

func (a *toolRepoAdapter) FindByNamespace(ctx context.Context, namespace string) ([]*Tool, error) {
	return a.reg.FindByNamespace(ctx, namespace)
}

// MemoryPersonalities is an in-memory PersonalityRepository holding a single
// active personality.
type MemoryPersonalities struct {
	mu     sync.RWMutex
	active *Personality
}

// NewMemoryPersonalities creates a repository with the given active
// personality (may be nil).
func NewMemoryPersonalities(active *Personality) *MemoryPersonalities {
	return &MemoryPersonalities{active: active}
}

// GetActive implements PersonalityRepository.
func (r *MemoryPersonalities) GetActive(ctx context.Context) (*Personality, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active, nil
}

// Save implements PersonalityRepository.
func (r *MemoryPersonalities) Save(ctx context.Context, p *Personality) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = p
	return nil
}
