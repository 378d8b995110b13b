/*
Package main is the entry point for the intent-hub CLI.

intent-hub is an adaptive semantic dispatcher: it routes transcribed events
to tool namespaces using embedding similarity against learned per-namespace
thresholds, runs a bounded LLM tool-calling loop over the selected tools, and
folds user feedback back into the selection thresholds.

Usage:

	intent-hub [command]

Available Commands:
	dispatch    Dispatch a transcription through the decision pipeline
	feedback    Record feedback on an invocation
	train       Fold recorded feedback into the attention state
	inspect     Print the invocation trail for a correlation id
	attention   Show learned thresholds and success rates
	help        Help about any command

Examples:

	# Dispatch an utterance offline with the deterministic embedder
	intent-hub dispatch "set a timer for 10 minutes"

	# Confirm the result and train on it
	intent-hub feedback <invocation-id> confirm --turn turn-1
	intent-hub train turn-1
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khanglvm/intent-hub/internal/cli"
	"github.com/khanglvm/intent-hub/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "intent-hub",
		Short: "Adaptive semantic dispatcher for transcribed events",
		Long: `intent-hub routes transcribed utterances to tool namespaces via embedding
similarity against learned per-namespace thresholds, then drives a bounded
tool-calling loop over the eligible tools.

Every dispatch is recorded as an invocation. User feedback (confirm, deny,
correct) is folded back into the thresholds and success rates by the trainer,
so selection adapts to how each personality actually speaks.`,
		Version: version.GetVersion(),
	}

	rootCmd.AddCommand(cli.NewDispatchCmd())
	rootCmd.AddCommand(cli.NewFeedbackCmd())
	rootCmd.AddCommand(cli.NewTrainCmd())
	rootCmd.AddCommand(cli.NewInspectCmd())
	rootCmd.AddCommand(cli.NewAttentionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
