package attention

import "testing"

func TestThresholdDefaults(t *testing.T) {
	s := NewState()

	if got := s.Threshold("task"); got != DefaultThreshold {
		t.Errorf("expected default threshold %v, got %v", DefaultThreshold, got)
	}
	if got := s.SuccessRate("task.create"); got != DefaultSuccessRate {
		t.Errorf("expected default success rate %v, got %v", DefaultSuccessRate, got)
	}
}

func TestRaiseThresholdStrictlyIncreases(t *testing.T) {
	starts := []float64{0.01, 0.3, DefaultThreshold, 0.95, 0.999}

	for _, start := range starts {
		s := NewState()
		s.Thresholds["task"] = start

		s.RaiseThreshold("task")

		got := s.Threshold("task")
		if got <= start {
			t.Errorf("raise from %v did not increase: got %v", start, got)
		}
		if got >= 1.0 {
			t.Errorf("raise from %v left (0,1): got %v", start, got)
		}
	}
}

func TestLowerThresholdStrictlyDecreases(t *testing.T) {
	starts := []float64{0.001, 0.05, DefaultThreshold, 0.7, 0.99}

	for _, start := range starts {
		s := NewState()
		s.Thresholds["task"] = start

		s.LowerThreshold("task")

		got := s.Threshold("task")
		if got >= start {
			t.Errorf("lower from %v did not decrease: got %v", start, got)
		}
		if got <= 0.0 {
			t.Errorf("lower from %v left (0,1): got %v", start, got)
		}
	}
}

func TestNudgeThresholdDownIsGentlerThanLower(t *testing.T) {
	lowered := NewState()
	lowered.LowerThreshold("task")

	nudged := NewState()
	nudged.NudgeThresholdDown("task")

	if nudged.Threshold("task") <= lowered.Threshold("task") {
		t.Errorf("nudge (%v) should stay above full lower (%v)",
			nudged.Threshold("task"), lowered.Threshold("task"))
	}
	if nudged.Threshold("task") >= DefaultThreshold {
		t.Errorf("nudge did not decrease: got %v", nudged.Threshold("task"))
	}
}

func TestRaiseFromUnsetStartsAtDefault(t *testing.T) {
	s := NewState()
	s.RaiseThreshold("task")

	want := DefaultThreshold + ThresholdStep*(1.0-DefaultThreshold)
	if got := s.Threshold("task"); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAdjustSuccessRateClamps(t *testing.T) {
	s := NewState()

	s.SetSuccessRate("task.create", 0.95)
	s.AdjustSuccessRate("task.create", SuccessRateStep)
	if got := s.SuccessRate("task.create"); got != 1.0 {
		t.Errorf("expected clamp to 1.0, got %v", got)
	}

	s.SetSuccessRate("task.create", 0.05)
	s.AdjustSuccessRate("task.create", -SuccessRateStep)
	if got := s.SuccessRate("task.create"); got != 0.0 {
		t.Errorf("expected clamp to 0.0, got %v", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := NewState()
	s.Thresholds["task"] = 0.7
	s.SetSuccessRate("task.create", 0.8)
	s.SetKeywordWeight("task.create", "todo", 0.2)
	s.Version = 3

	c := s.Clone()
	c.Thresholds["task"] = 0.1
	c.SetSuccessRate("task.create", 0.1)
	c.SetKeywordWeight("task.create", "todo", 0.9)

	if s.Thresholds["task"] != 0.7 {
		t.Error("clone shares Thresholds map")
	}
	if s.SuccessRate("task.create") != 0.8 {
		t.Error("clone shares SuccessRates map")
	}
	if w, _ := s.KeywordWeight("task.create", "todo"); w != 0.2 {
		t.Error("clone shares KeywordWeights map")
	}
	if c.Version != 3 {
		t.Errorf("clone version mismatch: got %d", c.Version)
	}
}

func TestKeywordWeightLookup(t *testing.T) {
	s := NewState()

	if _, ok := s.KeywordWeight("task.create", "todo"); ok {
		t.Error("expected no stored weight")
	}

	s.SetKeywordWeight("task.create", "todo", 0.25)
	w, ok := s.KeywordWeight("task.create", "todo")
	if !ok || w != 0.25 {
		t.Errorf("expected stored weight 0.25, got %v (ok=%v)", w, ok)
	}
}
