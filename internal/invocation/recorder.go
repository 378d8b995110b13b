package invocation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khanglvm/intent-hub/internal/engine"
	"github.com/khanglvm/intent-hub/internal/toolexec"
)

// Recorder assembles invocation records and persists them.
type Recorder struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder over the given repository.
func NewRecorder(repo Repository, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, logger: logger, now: time.Now}
}

// Draft carries the inputs of one record under assembly.
type Draft struct {
	CorrelationID  string
	PersonalityID  string
	EventEmbedding []float32
	Decision       *engine.Decision
	ToolsCalled    []string
	ToolResults    []toolexec.Result
	ErrorType      string
	Turns          int
	Started        time.Time
}

// Record builds the invocation from a draft, computes its confidence, and
// persists it synchronously. The returned record must not be mutated.
func (r *Recorder) Record(ctx context.Context, d Draft) (*Invocation, error) {
	inv := &Invocation{
		ID:             uuid.NewString(),
		CorrelationID:  d.CorrelationID,
		PersonalityID:  d.PersonalityID,
		EventEmbedding: d.EventEmbedding,
		ToolsCalled:    d.ToolsCalled,
		ErrorType:      d.ErrorType,
		Turns:          d.Turns,
		CreatedAt:      r.now(),
	}
	if !d.Started.IsZero() {
		inv.LatencyMS = r.now().Sub(d.Started).Milliseconds()
	}

	if d.Decision != nil {
		inv.NamespaceScores = d.Decision.NamespaceScores
		inv.ToolScores = d.Decision.ToolScores
		inv.ToolsPassed = d.Decision.EligibleToolNames()
		inv.ToolsFiltered = d.Decision.Filtered
		inv.ContextItemCount = len(d.Decision.Eligible)
		if d.Decision.Selected != nil {
			inv.SelectedNamespace = d.Decision.Selected.Name
		}
	}

	inv.ToolFailures = toolFailures(d.Decision, d.ToolResults)
	inv.Confidence = confidence(d.Decision, d.ToolsCalled)

	if err := r.repo.Save(ctx, inv); err != nil {
		return nil, err
	}

	r.logger.Debug("invocation recorded",
		zap.String("invocation_id", inv.ID),
		zap.String("correlation_id", inv.CorrelationID),
		zap.String("namespace", inv.SelectedNamespace),
		zap.Float64("confidence", inv.Confidence),
		zap.String("error_type", inv.ErrorType),
	)
	return inv, nil
}

// toolFailures extracts the failed calls into the record's failure trail. The
// confidence at failure time is the call's stamped score, falling back to the
// decision's score map for calls that were never stamped.
func toolFailures(dec *engine.Decision, results []toolexec.Result) []ToolFailure {
	var out []ToolFailure
	for _, res := range results {
		if res.Success || res.Failure == nil {
			continue
		}
		conf := res.Confidence
		if conf == 0 && dec != nil {
			conf = dec.ToolScores[res.ToolName]
		}
		out = append(out, ToolFailure{
			CallID:     res.CallID,
			Tool:       res.ToolName,
			Kind:       string(res.Failure.Kind),
			Slot:       res.Failure.Slot,
			Message:    res.Failure.Message,
			Confidence: conf,
		})
	}
	return out
}

// confidence averages the combined scores of the tools actually called. When
// no tool was called it falls back to the selected namespace's similarity,
// and to 0.0 when no namespace was selected.
func confidence(dec *engine.Decision, toolsCalled []string) float64 {
	if dec == nil {
		return 0.0
	}
	if len(toolsCalled) == 0 {
		if dec.Selected == nil {
			return 0.0
		}
		return dec.SelectedSimilarity
	}

	var sum float64
	for _, name := range toolsCalled {
		sum += dec.ToolScores[name]
	}
	return sum / float64(len(toolsCalled))
}
