/*
Package attention holds the learned selection state: per-namespace and
per-tool thresholds, per-tool success rates, and keyword-weight overrides.

This is the only persistent, cross-request mutable state in the dispatcher
core. Every write goes through an optimistic-concurrency (compare-and-swap)
cycle keyed on the state's version counter; readers never block writers.

Threshold steps are proportional: raising moves the value a fixed fraction of
the remaining distance to 1.0, lowering a fixed fraction of the distance to
0.0. This keeps every threshold strictly inside (0, 1) while guaranteeing a
strict move in the requested direction from any starting value in that range.
*/
package attention

import "math"

const (
	// DefaultThreshold is the similarity floor used when no personalized
	// threshold has been learned for a namespace or tool.
	DefaultThreshold = 0.6

	// DefaultSuccessRate is the neutral success rate for tools without
	// recorded feedback.
	DefaultSuccessRate = 0.5

	// ThresholdStep is the fraction of the remaining range applied by a
	// single raise or lower operation.
	ThresholdStep = 0.05

	// HalfStep is used for the gentler confirm-time reinforcement.
	HalfStep = ThresholdStep / 2

	// SuccessRateStep is the additive success-rate adjustment applied per
	// confirm or deny feedback row.
	SuccessRateStep = 0.1
)

// State is the attention snapshot embedded in a personality aggregate.
//
// The zero value is not usable; construct with NewState.
type State struct {
	// Thresholds maps a namespace name or tool full name to its learned
	// eligibility threshold.
	Thresholds map[string]float64 `json:"thresholds"`

	// SuccessRates maps a tool full name to its learned success rate.
	SuccessRates map[string]float64 `json:"successRates"`

	// KeywordWeights maps tool full name -> keyword -> boost weight.
	KeywordWeights map[string]map[string]float64 `json:"keywordWeights"`

	// Version increases by one on every persisted write and backs the
	// optimistic-lock check.
	Version int64 `json:"version"`
}

// NewState creates an empty attention state at version zero.
func NewState() *State {
	return &State{
		Thresholds:     make(map[string]float64),
		SuccessRates:   make(map[string]float64),
		KeywordWeights: make(map[string]map[string]float64),
	}
}

// Clone returns a deep copy of the state. Mutators operate on clones so a
// failed compare-and-swap never leaves a half-applied snapshot visible.
func (s *State) Clone() *State {
	c := &State{
		Thresholds:     make(map[string]float64, len(s.Thresholds)),
		SuccessRates:   make(map[string]float64, len(s.SuccessRates)),
		KeywordWeights: make(map[string]map[string]float64, len(s.KeywordWeights)),
		Version:        s.Version,
	}
	for k, v := range s.Thresholds {
		c.Thresholds[k] = v
	}
	for k, v := range s.SuccessRates {
		c.SuccessRates[k] = v
	}
	for tool, weights := range s.KeywordWeights {
		m := make(map[string]float64, len(weights))
		for k, v := range weights {
			m[k] = v
		}
		c.KeywordWeights[tool] = m
	}
	return c
}

// Threshold returns the learned threshold for a namespace or tool full name,
// falling back to DefaultThreshold when none is stored.
func (s *State) Threshold(name string) float64 {
	if v, ok := s.Thresholds[name]; ok {
		return v
	}
	return DefaultThreshold
}

// SuccessRate returns the learned success rate for a tool full name, falling
// back to DefaultSuccessRate when none is stored.
func (s *State) SuccessRate(tool string) float64 {
	if v, ok := s.SuccessRates[tool]; ok {
		return v
	}
	return DefaultSuccessRate
}

// RaiseThreshold moves the named threshold toward 1.0 by ThresholdStep of the
// remaining distance, making the candidate strictly harder to select.
func (s *State) RaiseThreshold(name string) {
	s.raise(name, ThresholdStep)
}

// LowerThreshold moves the named threshold toward 0.0 by ThresholdStep of the
// remaining distance, making the candidate strictly easier to select.
func (s *State) LowerThreshold(name string) {
	s.lower(name, ThresholdStep)
}

// NudgeThresholdDown applies the gentler confirm-time lowering.
func (s *State) NudgeThresholdDown(name string) {
	s.lower(name, HalfStep)
}

func (s *State) raise(name string, step float64) {
	t := s.Threshold(name)
	s.Thresholds[name] = t + step*(1.0-t)
}

func (s *State) lower(name string, step float64) {
	t := s.Threshold(name)
	s.Thresholds[name] = t - step*t
}

// SetSuccessRate stores an absolute success rate, clamped to [0, 1].
func (s *State) SetSuccessRate(tool string, value float64) {
	s.SuccessRates[tool] = clamp01(value)
}

// AdjustSuccessRate applies a delta to a tool's success rate, clamped to
// [0, 1].
func (s *State) AdjustSuccessRate(tool string, delta float64) {
	s.SuccessRates[tool] = clamp01(s.SuccessRate(tool) + delta)
}

// SetKeywordWeight stores a keyword boost override for a tool.
func (s *State) SetKeywordWeight(tool, keyword string, weight float64) {
	if s.KeywordWeights[tool] == nil {
		s.KeywordWeights[tool] = make(map[string]float64)
	}
	s.KeywordWeights[tool][keyword] = weight
}

// KeywordWeight returns the learned boost weight for a tool/keyword pair and
// whether one is stored.
func (s *State) KeywordWeight(tool, keyword string) (float64, bool) {
	weights, ok := s.KeywordWeights[tool]
	if !ok {
		return 0, false
	}
	w, ok := weights[keyword]
	return w, ok
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
