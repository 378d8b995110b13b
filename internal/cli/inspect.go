package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/intent-hub/internal/invocation"
)

// NewInspectCmd creates the 'inspect' command for printing the invocation
// trail of a correlation id.
func NewInspectCmd() *cobra.Command {
	var opts runtimeOptions
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <correlation-id>",
		Short: "Print the invocation trail for a correlation id",
		Example: `  intent-hub inspect 9c1e…
  intent-hub inspect 9c1e… --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := newRuntime(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			invs, err := rt.invs.FindByCorrelationID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load invocations: %w", err)
			}
			if len(invs) == 0 {
				fmt.Printf("No invocations found for %s\n", args[0])
				return nil
			}

			if jsonOutput {
				data, err := json.MarshalIndent(invs, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal invocations: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Invocations for %s (%d):\n\n", args[0], len(invs))
			for _, inv := range invs {
				printInvocation(inv)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Database path ('memory' disables persistence)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func printInvocation(inv *invocation.Invocation) {
	fmt.Printf("  %s\n", inv.ID)
	fmt.Printf("    Created:    %s\n", inv.CreatedAt.Format("2006-01-02 15:04:05"))
	if inv.SelectedNamespace != "" {
		fmt.Printf("    Namespace:  %s\n", inv.SelectedNamespace)
	}
	if len(inv.NamespaceScores) > 0 {
		fmt.Printf("    Scores:     %s\n", formatScores(inv.NamespaceScores))
	}
	if len(inv.ToolsCalled) > 0 {
		fmt.Printf("    Called:     %s\n", strings.Join(inv.ToolsCalled, ", "))
	}
	if len(inv.ToolsFiltered) > 0 {
		fmt.Printf("    Filtered:   %s\n", strings.Join(inv.ToolsFiltered, ", "))
	}
	for _, f := range inv.ToolFailures {
		if f.Slot != "" {
			fmt.Printf("    Failed:     %s (%s, slot %q, confidence %.3f)\n", f.Tool, f.Kind, f.Slot, f.Confidence)
		} else {
			fmt.Printf("    Failed:     %s (%s, confidence %.3f)\n", f.Tool, f.Kind, f.Confidence)
		}
	}
	fmt.Printf("    Confidence: %.3f\n", inv.Confidence)
	fmt.Printf("    Latency:    %dms\n", inv.LatencyMS)
	if inv.Turns > 0 {
		fmt.Printf("    Turns:      %d\n", inv.Turns)
	}
	if inv.ErrorType != "" {
		fmt.Printf("    Error:      %s\n", inv.ErrorType)
	}
	fmt.Println()
}

func formatScores(scores map[string]float64) string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%.3f", name, scores[name])
	}
	return strings.Join(parts, " ")
}
