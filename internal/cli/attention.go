package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewAttentionCmd creates the 'attention' command for showing the learned
// state of the default personality.
func NewAttentionCmd() *cobra.Command {
	var opts runtimeOptions
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "attention",
		Short: "Show learned thresholds and success rates",
		Example: `  intent-hub attention
  intent-hub attention --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := newRuntime(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			state, err := rt.attention.Get(ctx, defaultPersonalityID)
			if err != nil {
				return fmt.Errorf("failed to load attention state: %w", err)
			}

			if jsonOutput {
				data, err := json.MarshalIndent(state, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal state: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Attention state (version %d)\n\n", state.Version)

			namespaces, err := rt.registry.FindAll(ctx)
			if err != nil {
				return err
			}
			fmt.Println("Namespace thresholds:")
			for _, ns := range namespaces {
				fmt.Printf("  %-12s %.4f\n", ns.Name, state.Threshold(ns.Name))
			}

			tools, err := rt.registry.FindAllTools(ctx)
			if err != nil {
				return err
			}
			fmt.Println("\nTool success rates:")
			for _, tool := range tools {
				fmt.Printf("  %-16s %.4f\n", tool.FullName(), state.SuccessRate(tool.FullName()))
			}

			if len(state.KeywordWeights) > 0 {
				fmt.Println("\nKeyword weights:")
				for tool, weights := range state.KeywordWeights {
					for keyword, weight := range weights {
						fmt.Printf("  %s/%s = %.4f\n", tool, keyword, weight)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output the raw state as JSON")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Database path ('memory' disables persistence)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}
