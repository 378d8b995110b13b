package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/khanglvm/intent-hub/internal/attention"
	"github.com/khanglvm/intent-hub/internal/registry"
)

// testRegistry builds a registry with two orthogonal namespaces so cosine
// scores are exact.
func testRegistry(t *testing.T) *registry.MemoryRegistry {
	t.Helper()
	reg := registry.NewMemoryRegistry()

	namespaces := []*registry.Namespace{
		{Name: "task", Description: "tasks", Centroid: []float32{1, 0, 0, 0}},
		{Name: "timer", Description: "timers", Centroid: []float32{0, 1, 0, 0}},
	}
	for _, ns := range namespaces {
		if err := reg.AddNamespace(ns); err != nil {
			t.Fatalf("failed to add namespace: %v", err)
		}
	}

	tools := []*registry.Tool{
		{Name: "create", Namespace: "task", Centroid: []float32{1, 0, 0, 0}},
		{Name: "complete", Namespace: "task", Centroid: []float32{0, 0, 1, 0}},
		{Name: "set", Namespace: "timer", Centroid: []float32{0, 1, 0, 0}},
	}
	for _, tool := range tools {
		if err := reg.AddTool(tool); err != nil {
			t.Fatalf("failed to add tool: %v", err)
		}
	}
	return reg
}

// vectorWithCosine returns a unit vector whose cosine against [1,0,0,0] is
// exactly sim. The residual lands on the last axis, which no centroid uses.
func vectorWithCosine(sim float64) []float32 {
	return []float32{float32(sim), 0, 0, float32(math.Sqrt(1 - sim*sim))}
}

func TestDecideSelectsNamespaceAndTools(t *testing.T) {
	reg := testRegistry(t)
	eng := New(reg, reg.Tools(), nil, nil)
	state := attention.NewState()

	dec, err := eng.Decide(context.Background(), "create a task", []float32{1, 0, 0, 0}, state)
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	if dec.Outcome != OutcomeSelected {
		t.Fatalf("expected selected outcome, got %s", dec.Outcome)
	}
	if dec.Selected.Name != "task" {
		t.Errorf("expected namespace task, got %s", dec.Selected.Name)
	}
	if dec.SelectedSimilarity < 0.999 {
		t.Errorf("expected similarity ~1.0, got %v", dec.SelectedSimilarity)
	}

	// task.create: 0.6*1.0 + 0.4*0.5 = 0.8, eligible.
	// task.complete: 0.6*0.0 + 0.4*0.5 = 0.2, filtered.
	if len(dec.Eligible) != 1 || dec.Eligible[0].Tool.FullName() != "task.create" {
		t.Errorf("expected only task.create eligible, got %v", dec.EligibleToolNames())
	}
	if len(dec.Filtered) != 1 || dec.Filtered[0] != "task.complete" {
		t.Errorf("expected task.complete filtered, got %v", dec.Filtered)
	}
	if len(dec.NamespaceScores) != 2 {
		t.Errorf("expected scores for both namespaces, got %v", dec.NamespaceScores)
	}
}

func TestDecideNoNamespaceBelowThreshold(t *testing.T) {
	reg := testRegistry(t)
	eng := New(reg, reg.Tools(), nil, nil)
	state := attention.NewState()

	// Similarity 0.55 against the default 0.6 threshold on both namespaces.
	dec, err := eng.Decide(context.Background(), "vague words", vectorWithCosine(0.55), state)
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	if dec.Outcome != OutcomeNoNamespace {
		t.Fatalf("expected no_namespace, got %s", dec.Outcome)
	}
	if dec.Selected != nil {
		t.Errorf("expected no selection, got %s", dec.Selected.Name)
	}
	if len(dec.NamespaceScores) != 2 {
		t.Errorf("score trail missing: %v", dec.NamespaceScores)
	}
}

func TestDecideLoweredThresholdAdmitsSameEvent(t *testing.T) {
	reg := testRegistry(t)
	eng := New(reg, reg.Tools(), nil, nil)
	event := vectorWithCosine(0.55)

	state := attention.NewState()
	dec, err := eng.Decide(context.Background(), "vague words", event, state)
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if dec.Outcome != OutcomeNoNamespace {
		t.Fatalf("expected no_namespace before lowering, got %s", dec.Outcome)
	}

	// Lower the task threshold below the event's similarity and replay.
	state.Thresholds["task"] = 0.5
	dec, err = eng.Decide(context.Background(), "vague words", event, state)
	if err != nil {
		t.Fatalf("replay decide failed: %v", err)
	}
	if dec.Outcome == OutcomeNoNamespace {
		t.Fatal("expected a namespace after lowering the threshold")
	}
	if dec.Selected.Name != "task" {
		t.Errorf("expected task selected, got %s", dec.Selected.Name)
	}
}

func TestDecideTieBreaksByRegistrationOrder(t *testing.T) {
	reg := registry.NewMemoryRegistry()
	shared := []float32{1, 0, 0, 0}
	for _, name := range []string{"first", "second"} {
		if err := reg.AddNamespace(&registry.Namespace{Name: name, Centroid: shared}); err != nil {
			t.Fatalf("failed to add namespace: %v", err)
		}
		if err := reg.AddTool(&registry.Tool{Name: "go", Namespace: name, Centroid: shared}); err != nil {
			t.Fatalf("failed to add tool: %v", err)
		}
	}

	eng := New(reg, reg.Tools(), nil, nil)
	dec, err := eng.Decide(context.Background(), "go", shared, attention.NewState())
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	if dec.Selected.Name != "first" {
		t.Errorf("expected earlier-registered namespace to win the tie, got %s", dec.Selected.Name)
	}
}

func TestDecideNoToolsWhenAllFiltered(t *testing.T) {
	reg := registry.NewMemoryRegistry()
	if err := reg.AddNamespace(&registry.Namespace{Name: "task", Centroid: []float32{1, 0, 0, 0}}); err != nil {
		t.Fatalf("failed to add namespace: %v", err)
	}
	// The only tool points away from the event.
	if err := reg.AddTool(&registry.Tool{Name: "create", Namespace: "task", Centroid: []float32{0, 0, 1, 0}}); err != nil {
		t.Fatalf("failed to add tool: %v", err)
	}

	eng := New(reg, reg.Tools(), nil, nil)
	dec, err := eng.Decide(context.Background(), "task stuff", []float32{1, 0, 0, 0}, attention.NewState())
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	if dec.Outcome != OutcomeNoTools {
		t.Fatalf("expected no_tools, got %s", dec.Outcome)
	}
	if dec.Selected.Name != "task" {
		t.Errorf("expected task still selected, got %v", dec.Selected)
	}
	if len(dec.Filtered) != 1 {
		t.Errorf("expected one filtered tool, got %v", dec.Filtered)
	}
}

func TestDecideSuccessRateLiftsBorderlineTool(t *testing.T) {
	reg := registry.NewMemoryRegistry()
	if err := reg.AddNamespace(&registry.Namespace{Name: "task", Centroid: []float32{1, 0, 0, 0}}); err != nil {
		t.Fatalf("failed to add namespace: %v", err)
	}
	// Semantic 0.5: 0.6*0.5 + 0.4*rate crosses 0.5 only when rate > 0.5.
	if err := reg.AddTool(&registry.Tool{Name: "create", Namespace: "task", Centroid: vectorWithCosine(0.5)}); err != nil {
		t.Fatalf("failed to add tool: %v", err)
	}
	eng := New(reg, reg.Tools(), nil, nil)
	event := []float32{1, 0, 0, 0}

	state := attention.NewState()
	state.SetSuccessRate("task.create", 0.2)
	dec, err := eng.Decide(context.Background(), "task", event, state)
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if dec.Outcome != OutcomeNoTools {
		t.Fatalf("expected no_tools with low success rate, got %s", dec.Outcome)
	}

	state.SetSuccessRate("task.create", 0.9)
	dec, err = eng.Decide(context.Background(), "task", event, state)
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if dec.Outcome != OutcomeSelected {
		t.Fatalf("expected selection with high success rate, got %s", dec.Outcome)
	}
}

// staticBooster returns fixed keyword scores.
type staticBooster struct {
	scores map[string]float64
	err    error
}

func (b *staticBooster) Boost(transcription string, limit int) (map[string]float64, error) {
	return b.scores, b.err
}

func TestDecideKeywordBoostBreaksScoreTie(t *testing.T) {
	reg := registry.NewMemoryRegistry()
	centroid := []float32{1, 0, 0, 0}
	if err := reg.AddNamespace(&registry.Namespace{Name: "task", Centroid: centroid}); err != nil {
		t.Fatalf("failed to add namespace: %v", err)
	}
	for _, name := range []string{"create", "complete"} {
		if err := reg.AddTool(&registry.Tool{Name: name, Namespace: "task", Centroid: centroid}); err != nil {
			t.Fatalf("failed to add tool: %v", err)
		}
	}

	booster := &staticBooster{scores: map[string]float64{"task.complete": 1.0}}
	eng := New(reg, reg.Tools(), booster, nil)

	dec, err := eng.Decide(context.Background(), "complete it", centroid, attention.NewState())
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if len(dec.Eligible) != 2 {
		t.Fatalf("expected both tools eligible, got %v", dec.EligibleToolNames())
	}
	if dec.Eligible[0].Tool.FullName() != "task.complete" {
		t.Errorf("expected boosted tool ranked first, got %v", dec.EligibleToolNames())
	}
}

func TestDecideToleratesBoosterFailure(t *testing.T) {
	reg := testRegistry(t)
	booster := &staticBooster{err: errors.New("index unavailable")}
	eng := New(reg, reg.Tools(), booster, nil)

	dec, err := eng.Decide(context.Background(), "create a task", []float32{1, 0, 0, 0}, attention.NewState())
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if dec.Outcome != OutcomeSelected {
		t.Errorf("expected selection despite booster failure, got %s", dec.Outcome)
	}
}
