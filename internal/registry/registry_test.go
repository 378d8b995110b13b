package registry

import (
	"context"
	"testing"
)

func TestSplitFullName(t *testing.T) {
	cases := []struct {
		input     string
		namespace string
		name      string
	}{
		{"task.create", "task", "create"},
		{"timer.set", "timer", "set"},
		{"bare", "", "bare"},
		{"a.b.c", "a", "b.c"},
	}
	for _, tc := range cases {
		ns, name := SplitFullName(tc.input)
		if ns != tc.namespace || name != tc.name {
			t.Errorf("SplitFullName(%q) = (%q, %q), want (%q, %q)",
				tc.input, ns, name, tc.namespace, tc.name)
		}
	}
}

func TestToolFullName(t *testing.T) {
	tool := &Tool{Name: "create", Namespace: "task"}
	if tool.FullName() != "task.create" {
		t.Errorf("expected task.create, got %s", tool.FullName())
	}
	if tool.Key() != tool.FullName() {
		t.Errorf("Key and FullName must agree")
	}
}

func TestMemoryRegistryRegistrationOrder(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.AddNamespace(&Namespace{Name: name}); err != nil {
			t.Fatalf("failed to add namespace: %v", err)
		}
	}

	namespaces, err := reg.FindAll(ctx)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	want := []string{"zeta", "alpha", "mid"}
	for i, ns := range namespaces {
		if ns.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], ns.Name)
		}
	}
}

func TestMemoryRegistryRejectsDuplicates(t *testing.T) {
	reg := NewMemoryRegistry()

	if err := reg.AddNamespace(&Namespace{Name: "task"}); err != nil {
		t.Fatalf("failed to add namespace: %v", err)
	}
	if err := reg.AddNamespace(&Namespace{Name: "task"}); err == nil {
		t.Error("expected duplicate namespace to be rejected")
	}

	if err := reg.AddTool(&Tool{Name: "create", Namespace: "task"}); err != nil {
		t.Fatalf("failed to add tool: %v", err)
	}
	if err := reg.AddTool(&Tool{Name: "create", Namespace: "task"}); err == nil {
		t.Error("expected duplicate tool to be rejected")
	}
}

func TestMemoryRegistryRejectsOrphanTool(t *testing.T) {
	reg := NewMemoryRegistry()

	if err := reg.AddTool(&Tool{Name: "create", Namespace: "missing"}); err == nil {
		t.Error("expected tool with unknown namespace to be rejected")
	}
}

func TestMemoryRegistryFindByNamespace(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	for _, name := range []string{"task", "timer"} {
		if err := reg.AddNamespace(&Namespace{Name: name}); err != nil {
			t.Fatalf("failed to add namespace: %v", err)
		}
	}
	tools := []*Tool{
		{Name: "create", Namespace: "task"},
		{Name: "set", Namespace: "timer"},
		{Name: "list", Namespace: "task"},
	}
	for _, tool := range tools {
		if err := reg.AddTool(tool); err != nil {
			t.Fatalf("failed to add tool: %v", err)
		}
	}

	taskTools, err := reg.FindByNamespace(ctx, "task")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(taskTools) != 2 || taskTools[0].Name != "create" || taskTools[1].Name != "list" {
		t.Errorf("unexpected task tools: %v", taskTools)
	}

	// The ToolRepository view serves the same data.
	all, err := reg.Tools().FindAll(ctx)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 tools, got %d", len(all))
	}
}

func TestToolByFullName(t *testing.T) {
	reg := NewMemoryRegistry()
	if err := reg.AddNamespace(&Namespace{Name: "task"}); err != nil {
		t.Fatalf("failed to add namespace: %v", err)
	}
	if err := reg.AddTool(&Tool{Name: "create", Namespace: "task"}); err != nil {
		t.Fatalf("failed to add tool: %v", err)
	}

	if _, ok := reg.ToolByFullName("task.create"); !ok {
		t.Error("expected lookup hit")
	}
	if _, ok := reg.ToolByFullName("task.missing"); ok {
		t.Error("expected lookup miss")
	}
}

func TestMemoryPersonalities(t *testing.T) {
	ctx := context.Background()

	repo := NewMemoryPersonalities(nil)
	p, err := repo.GetActive(ctx)
	if err != nil || p != nil {
		t.Errorf("expected no active personality, got %v (%v)", p, err)
	}

	if err := repo.Save(ctx, &Personality{ID: "p1", Name: "Test"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	p, err = repo.GetActive(ctx)
	if err != nil || p == nil || p.ID != "p1" {
		t.Errorf("expected personality p1, got %v (%v)", p, err)
	}
}
