package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/component"
	"github.com/retracehq/retrace/internal/harness"
	"github.com/retracehq/retrace/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	DBPath   string
	RunToken string
}

// ReplaySummary holds the replay outcome for JSON output.
type ReplaySummary struct {
	RunToken string `json:"run_token"`
	Scenario string `json:"scenario"`
	Match    bool   `json:"match"`
	Index    int    `json:"index,omitempty"`
	Stored   string `json:"stored,omitempty"`
	Fresh    string `json:"fresh,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions, reg *component.Registry) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute a recorded run and check determinism",
		Long: `Re-execute a recorded run from its stored scenario and compare the
fresh trace against the stored one, entry by entry.

The fresh run reuses the recorded run token, so event IDs act as
checksums over the scripted inputs. A divergence means the same
component produced a different trace for the same script.

Exit codes:
  0 - Fresh trace reproduced the stored trace
  1 - Replay diverged from the stored trace
  2 - Command error (missing run, database errors, etc.)

Examples:
  retrace replay --db traces.db --run scenario-run-default
  retrace replay --db traces.db --run golden-counter-1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, reg, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to the trace database (required)")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "run token of the recorded run (required)")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("run")

	return cmd
}

func runReplay(opts *ReplayOptions, reg *component.Registry, cmd *cobra.Command) error {
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening trace database", err)
	}
	defer st.Close()

	logger := commandLogger(cmd, opts.RootOptions)
	result, err := harness.Replay(cmd.Context(), st, opts.RunToken, reg, harness.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "replay", err)
	}

	if opts.Format == "json" {
		summary := ReplaySummary{
			RunToken: result.RunToken,
			Scenario: result.Scenario,
			Match:    result.Match,
		}
		response := CLIResponse{Status: "ok", Data: &summary}
		if !result.Match {
			summary.Index = result.Index
			summary.Stored = result.Stored
			summary.Fresh = result.Fresh
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_REPLAY_DIVERGED",
				Message: fmt.Sprintf("replay diverged at entry %d", result.Index),
			}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), result.Report())
	}

	if !result.Match {
		return NewExitError(ExitFailure, fmt.Sprintf("replay diverged at entry %d", result.Index))
	}
	return nil
}
