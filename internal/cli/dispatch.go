package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/intent-hub/internal/dispatcher"
)

// NewDispatchCmd creates the 'dispatch' command for one-shot event dispatch.
func NewDispatchCmd() *cobra.Command {
	var opts runtimeOptions
	var jsonOutput bool
	var correlationID string
	var source string

	cmd := &cobra.Command{
		Use:   "dispatch <transcription>",
		Short: "Dispatch a transcription through the decision pipeline",
		Long: `Embed the transcription, select a namespace and tools against the
learned attention state, run the bounded reasoning loop, and record the
invocation.`,
		Example: `  intent-hub dispatch "set a timer for 10 minutes"
  intent-hub dispatch "add buy milk to my tasks" --json
  intent-hub dispatch "create a task" --provider openai --model gpt-4o`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(cmd, strings.Join(args, " "), opts, jsonOutput, correlationID, source)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output the full result as JSON")
	cmd.Flags().StringVar(&correlationID, "correlation", "", "Correlation id linking related invocations")
	cmd.Flags().StringVar(&source, "source", "cli", "Event source tag")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Database path ('memory' disables persistence)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Reasoning provider (mock, openai, anthropic)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name override")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runDispatch(cmd *cobra.Command, transcription string, opts runtimeOptions, jsonOutput bool, correlationID, source string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	result := rt.disp.Dispatch(ctx, dispatcher.Event{
		CorrelationID: correlationID,
		Source:        source,
		Payload:       map[string]any{"transcription": transcription},
	})

	if jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if result.HasError {
		fmt.Printf("✗ dispatch failed: %s\n", result.ErrorType)
	} else if result.ErrorType != "" {
		fmt.Printf("• no match: %s\n", result.ErrorType)
	} else {
		fmt.Printf("✓ namespace: %s\n", result.SelectedNamespace)
	}
	for _, call := range result.ToolCalls {
		args, _ := json.Marshal(call.Arguments)
		fmt.Printf("  tool: %s %s\n", call.Name, args)
	}
	if result.FinalText != "" {
		fmt.Printf("  response: %s\n", result.FinalText)
	}
	if len(result.ToolCalls) > 0 {
		fmt.Printf("  confidence: %.3f\n", result.Confidence)
	}
	if result.InvocationID != "" {
		fmt.Printf("  invocation: %s\n", result.InvocationID)
	}
	return nil
}
