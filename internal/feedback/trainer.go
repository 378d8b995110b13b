package feedback

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/khanglvm/intent-hub/internal/attention"
	"github.com/khanglvm/intent-hub/internal/invocation"
)

// Report summarizes one training run.
type Report struct {
	// RowsApplied is the number of feedback rows that produced adjustments.
	RowsApplied int

	// RowsSkipped counts rows whose invocation could not be resolved.
	RowsSkipped int

	// ThresholdsRaised / ThresholdsLowered count threshold moves.
	ThresholdsRaised  int
	ThresholdsLowered int

	// SuccessRatesAdjusted counts success-rate moves.
	SuccessRatesAdjusted int
}

// Trainer applies feedback rows for a turn to the attention store.
type Trainer struct {
	feedback    Repository
	invocations invocation.Repository
	attention   *attention.Store
	logger      *zap.Logger
}

// NewTrainer creates a trainer.
func NewTrainer(fb Repository, inv invocation.Repository, att *attention.Store, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{feedback: fb, invocations: inv, attention: att, logger: logger}
}

// Train fetches the dispatcher feedback for turnID and applies each row once.
// Every row's adjustments land in a single compare-and-swap write against the
// invocation's personality; a conflict that survives the store's retries is
// returned as-is rather than silently dropped. A turn with zero rows is a
// strict no-op: no state is loaded for writing and nothing is persisted.
func (t *Trainer) Train(ctx context.Context, turnID string) (*Report, error) {
	rows, err := t.feedback.FindByTurnAndComponent(ctx, turnID, ComponentDispatcher)
	if err != nil {
		return nil, fmt.Errorf("load feedback for turn %q: %w", turnID, err)
	}

	report := &Report{}
	for _, row := range rows {
		inv, err := t.invocations.FindByID(ctx, row.InvocationID)
		if err != nil {
			return report, fmt.Errorf("load invocation %q: %w", row.InvocationID, err)
		}
		if inv == nil {
			report.RowsSkipped++
			t.logger.Warn("feedback references unknown invocation",
				zap.String("feedback_id", row.ID),
				zap.String("invocation_id", row.InvocationID),
			)
			continue
		}

		plan := planRow(row, inv)
		_, err = t.attention.Apply(ctx, inv.PersonalityID, plan.apply)
		if err != nil {
			return report, fmt.Errorf("apply feedback %q: %w", row.ID, err)
		}
		plan.tally(report)
		report.RowsApplied++
	}

	t.logger.Info("training run complete",
		zap.String("turn_id", turnID),
		zap.Int("rows_applied", report.RowsApplied),
		zap.Int("rows_skipped", report.RowsSkipped),
	)
	return report, nil
}

// rowPlan is the precomputed set of adjustments for one feedback row. The
// plan is built outside the compare-and-swap cycle so a retried write applies
// exactly the same mutation and the report counters are tallied exactly once.
type rowPlan struct {
	raises      []string
	lowers      []string
	nudgesDown  []string
	rateAdjusts map[string]float64
}

// planRow derives the adjustments a feedback row demands, given what the
// invocation trail shows was actually selected and called. A correction
// adjusts targets of its own kind: a namespace correction moves namespace
// thresholds, a tool correction moves tool thresholds, and a correction
// naming both moves both independently.
func planRow(row *Feedback, inv *invocation.Invocation) *rowPlan {
	plan := &rowPlan{rateAdjusts: make(map[string]float64)}

	switch row.Action {
	case ActionCorrect:
		// Penalize what was actually chosen.
		if inv.SelectedNamespace != "" && row.Correction.Namespace != "" &&
			row.Correction.Namespace != inv.SelectedNamespace {
			plan.raises = append(plan.raises, inv.SelectedNamespace)
		}
		if row.Correction.Tool != "" {
			for _, called := range inv.ToolsCalled {
				if called != row.Correction.Tool {
					plan.raises = append(plan.raises, called)
				}
			}
		}
		// Reward the intended target(s).
		if row.Correction.Namespace != "" {
			plan.lowers = append(plan.lowers, row.Correction.Namespace)
		}
		if row.Correction.Tool != "" {
			plan.lowers = append(plan.lowers, row.Correction.Tool)
		}

	case ActionConfirm:
		for _, called := range inv.ToolsCalled {
			plan.rateAdjusts[called] += attention.SuccessRateStep
		}
		if inv.SelectedNamespace != "" {
			plan.nudgesDown = append(plan.nudgesDown, inv.SelectedNamespace)
		}

	case ActionDeny:
		// No correction target is known, so namespace thresholds stay put.
		for _, called := range inv.ToolsCalled {
			plan.rateAdjusts[called] -= attention.SuccessRateStep
		}
	}

	return plan
}

// apply mutates a state snapshot according to the plan.
func (p *rowPlan) apply(s *attention.State) {
	for _, name := range p.raises {
		s.RaiseThreshold(name)
	}
	for _, name := range p.lowers {
		s.LowerThreshold(name)
	}
	for _, name := range p.nudgesDown {
		s.NudgeThresholdDown(name)
	}
	for tool, delta := range p.rateAdjusts {
		s.AdjustSuccessRate(tool, delta)
	}
}

// tally adds the plan's move counts to the report.
func (p *rowPlan) tally(report *Report) {
	report.ThresholdsRaised += len(p.raises)
	report.ThresholdsLowered += len(p.lowers) + len(p.nudgesDown)
	report.SuccessRatesAdjusted += len(p.rateAdjusts)
}
