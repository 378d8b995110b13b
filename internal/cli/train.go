package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTrainCmd creates the 'train' command for applying feedback to the
// attention state.
func NewTrainCmd() *cobra.Command {
	var opts runtimeOptions

	cmd := &cobra.Command{
		Use:   "train <turn-id>",
		Short: "Fold recorded feedback into the attention state",
		Long: `Fetch the feedback rows for a turn and adjust namespace thresholds
and tool success rates accordingly. Training the same turn again re-applies
the adjustments.`,
		Example: `  intent-hub train turn-12`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := newRuntime(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.trainer.Train(ctx, args[0])
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}

			fmt.Printf("Training report for %s\n", args[0])
			fmt.Printf("  rows applied:        %d\n", report.RowsApplied)
			fmt.Printf("  rows skipped:        %d\n", report.RowsSkipped)
			fmt.Printf("  thresholds raised:   %d\n", report.ThresholdsRaised)
			fmt.Printf("  thresholds lowered:  %d\n", report.ThresholdsLowered)
			fmt.Printf("  success rate moves:  %d\n", report.SuccessRatesAdjusted)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Database path ('memory' disables persistence)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}
