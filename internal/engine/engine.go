/*
Package engine implements the decision engine: scoring and threshold-gated
filtering of namespace and tool candidates for an incoming event.

The engine is a pure read path. It consults the namespace/tool repositories,
the personality's attention state, and the keyword booster, and produces a
Decision; it never mutates thresholds or statistics.

Selection rules:

  - A namespace is eligible iff cosine(event, centroid) >= its personalized
    threshold (attention.DefaultThreshold when none is learned).
  - The eligible namespace with the highest similarity wins. Ties are broken
    by registration order: the earlier-registered candidate wins, because
    comparison is strict and candidates are visited in repository order.
  - A tool's combined score is
    SemanticWeight*cosine + StatisticalWeight*successRate + kw*keywordBoost,
    where kw is the tool's learned keyword weight (or the default) and
    keywordBoost the normalized Bleve match score for the transcription.
  - A tool is eligible iff its combined score >= ToolSelectionThreshold, a
    shared constant independent of namespace thresholds.
*/
package engine

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/khanglvm/intent-hub/internal/attention"
	"github.com/khanglvm/intent-hub/internal/embedding"
	"github.com/khanglvm/intent-hub/internal/registry"
)

const (
	// SemanticWeight weighs the cosine similarity term of a tool's score.
	SemanticWeight = 0.6

	// StatisticalWeight weighs the learned success-rate term.
	StatisticalWeight = 0.4

	// ToolSelectionThreshold is the shared minimum combined score a tool
	// must reach to be passed to the reasoning service.
	ToolSelectionThreshold = 0.5

	// DefaultKeywordBoostWeight applies when a tool has no learned keyword
	// weights.
	DefaultKeywordBoostWeight = 0.1

	// boostCandidateLimit caps how many keyword matches are requested from
	// the booster per decision.
	boostCandidateLimit = 32
)

// Outcome classifies a decision.
type Outcome string

const (
	// OutcomeSelected: a namespace and at least one tool were selected.
	OutcomeSelected Outcome = "selected"

	// OutcomeNoNamespace: no namespace cleared its threshold.
	OutcomeNoNamespace Outcome = "no_namespace"

	// OutcomeNoTools: a namespace was selected but none of its tools
	// cleared the tool-selection threshold.
	OutcomeNoTools Outcome = "no_tools"
)

// ScoredTool pairs an eligible tool with its combined score.
type ScoredTool struct {
	Tool     *registry.Tool
	Score    float64
	Semantic float64
}

// Decision is the engine's output for one event. Score maps cover every
// candidate considered, not just the winners, so the invocation recorder can
// persist the full trail.
type Decision struct {
	// NamespaceScores maps every considered namespace to its similarity.
	NamespaceScores map[string]float64

	// Selected is the winning namespace, or nil.
	Selected *registry.Namespace

	// SelectedSimilarity is the winning namespace's similarity score.
	SelectedSimilarity float64

	// ToolScores maps every considered tool full name to its combined score.
	ToolScores map[string]float64

	// Eligible lists tools that cleared the threshold, by descending score.
	Eligible []ScoredTool

	// Filtered lists tool full names that fell below the threshold.
	Filtered []string

	// Outcome classifies the decision.
	Outcome Outcome
}

// EligibleToolNames returns the full names of the eligible tools in rank
// order.
func (d *Decision) EligibleToolNames() []string {
	out := make([]string, len(d.Eligible))
	for i, st := range d.Eligible {
		out[i] = st.Tool.FullName()
	}
	return out
}

// Booster supplies normalized keyword-match scores for a transcription.
type Booster interface {
	Boost(transcription string, limit int) (map[string]float64, error)
}

// Engine scores and filters candidates. Construct with New; all collaborators
// are injected explicitly.
type Engine struct {
	namespaces registry.NamespaceRepository
	tools      registry.ToolRepository
	booster    Booster
	logger     *zap.Logger
}

// New creates an engine. booster may be nil to disable keyword boosting.
func New(namespaces registry.NamespaceRepository, tools registry.ToolRepository, booster Booster, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		namespaces: namespaces,
		tools:      tools,
		booster:    booster,
		logger:     logger,
	}
}

// Decide runs namespace and tool selection for one event embedding against
// the given attention state.
func (e *Engine) Decide(ctx context.Context, transcription string, eventVec []float32, state *attention.State) (*Decision, error) {
	namespaces, err := e.namespaces.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load namespaces: %w", err)
	}

	dec := &Decision{
		NamespaceScores: make(map[string]float64, len(namespaces)),
		ToolScores:      make(map[string]float64),
	}

	// Strictly-greater comparison over registration order makes the
	// tie-break deterministic: the first registered candidate wins.
	best := -1.0
	for _, ns := range namespaces {
		sim := similarity(eventVec, ns)
		dec.NamespaceScores[ns.Name] = sim

		if sim < state.Threshold(ns.Name) {
			continue
		}
		if sim > best {
			best = sim
			dec.Selected = ns
			dec.SelectedSimilarity = sim
		}
	}

	if dec.Selected == nil {
		dec.Outcome = OutcomeNoNamespace
		e.logger.Debug("no namespace eligible", zap.Int("candidates", len(namespaces)))
		return dec, nil
	}

	tools, err := e.tools.FindByNamespace(ctx, dec.Selected.Name)
	if err != nil {
		return nil, fmt.Errorf("load tools for %q: %w", dec.Selected.Name, err)
	}

	boosts := e.keywordBoosts(transcription)
	for _, t := range tools {
		semantic := similarity(eventVec, t)
		score := SemanticWeight*semantic +
			StatisticalWeight*state.SuccessRate(t.FullName()) +
			keywordWeight(state, t)*boosts[t.FullName()]
		dec.ToolScores[t.FullName()] = score

		if score >= ToolSelectionThreshold {
			dec.Eligible = append(dec.Eligible, ScoredTool{Tool: t, Score: score, Semantic: semantic})
		} else {
			dec.Filtered = append(dec.Filtered, t.FullName())
		}
	}

	// Rank eligible tools by descending score; equal scores keep
	// registration order (stable sort over repository order).
	sort.SliceStable(dec.Eligible, func(i, j int) bool {
		return dec.Eligible[i].Score > dec.Eligible[j].Score
	})

	if len(dec.Eligible) == 0 {
		dec.Outcome = OutcomeNoTools
		e.logger.Debug("no tools eligible",
			zap.String("namespace", dec.Selected.Name),
			zap.Int("filtered", len(dec.Filtered)),
		)
		return dec, nil
	}

	dec.Outcome = OutcomeSelected
	return dec, nil
}

// similarity scores an embeddable candidate against the event embedding.
func similarity(eventVec []float32, candidate embedding.Embeddable) float64 {
	return embedding.Cosine(eventVec, candidate.Vector())
}

// keywordBoosts queries the booster, tolerating its absence and failures:
// keyword boosting is an enhancement, never a reason to refuse a decision.
func (e *Engine) keywordBoosts(transcription string) map[string]float64 {
	if e.booster == nil || transcription == "" {
		return map[string]float64{}
	}
	boosts, err := e.booster.Boost(transcription, boostCandidateLimit)
	if err != nil {
		e.logger.Warn("keyword boost failed", zap.Error(err))
		return map[string]float64{}
	}
	return boosts
}

// keywordWeight averages the learned keyword weights for the tool's keyword
// list, falling back to the default weight when none are stored.
func keywordWeight(state *attention.State, t *registry.Tool) float64 {
	var sum float64
	var count int
	for _, kw := range t.Keywords {
		if w, ok := state.KeywordWeight(t.FullName(), kw); ok {
			sum += w
			count++
		}
	}
	if count == 0 {
		return DefaultKeywordBoostWeight
	}
	return sum / float64(count)
}
