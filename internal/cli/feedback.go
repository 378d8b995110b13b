package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/khanglvm/intent-hub/internal/feedback"
)

// NewFeedbackCmd creates the 'feedback' command for recording a user judgment
// on a past invocation.
func NewFeedbackCmd() *cobra.Command {
	var opts runtimeOptions
	var turnID string
	var namespace string
	var tool string
	var reason string

	cmd := &cobra.Command{
		Use:   "feedback <invocation-id> <confirm|deny|correct>",
		Short: "Record feedback on an invocation",
		Long: `Store a feedback row tied to an invocation. Corrections name the
intended namespace and/or tool. Run 'intent-hub train <turn-id>' afterwards to
fold the feedback into the attention state.`,
		Example: `  intent-hub feedback 4f6b… confirm --turn turn-12
  intent-hub feedback 4f6b… correct --turn turn-12 --namespace timer
  intent-hub feedback 4f6b… deny --turn turn-12 --reason "wrong tool"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := newRuntime(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			row := &feedback.Feedback{
				ID:           uuid.NewString(),
				InvocationID: args[0],
				TurnID:       turnID,
				Component:    feedback.ComponentDispatcher,
				Action:       feedback.Action(args[1]),
				Correction: feedback.Correction{
					Namespace: namespace,
					Tool:      tool,
				},
				Reason:    reason,
				CreatedAt: time.Now().UTC(),
			}
			if err := row.Validate(); err != nil {
				return err
			}
			if err := rt.fbs.Save(ctx, row); err != nil {
				return fmt.Errorf("failed to save feedback: %w", err)
			}

			fmt.Printf("✓ feedback recorded: %s\n", row.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&turnID, "turn", "", "Turn id grouping this exchange")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Intended namespace (correct only)")
	cmd.Flags().StringVar(&tool, "tool", "", "Intended tool full name (correct only)")
	cmd.Flags().StringVar(&reason, "reason", "", "Free-text explanation")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Database path ('memory' disables persistence)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	_ = cmd.MarkFlagRequired("turn")

	return cmd
}
