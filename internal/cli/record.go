package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/component"
	"github.com/retracehq/retrace/internal/harness"
	"github.com/retracehq/retrace/internal/sim"
	"github.com/retracehq/retrace/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	DBPath string
	Filter string
}

// RecordedRun holds the stored identity of one recorded run.
type RecordedRun struct {
	Name     string `json:"name"`
	RunToken string `json:"run_token"`
	RunID    string `json:"run_id"`
	Entries  int    `json:"entries"`
}

// RecordResult holds the overall record result.
type RecordResult struct {
	Runs     []RecordedRun `json:"runs"`
	Database string        `json:"database"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions, reg *component.Registry) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <scenario>...",
		Short: "Record scenario traces into a database",
		Long: `Run scenario files and persist the produced traces, with the
scenario source, into a SQLite database keyed by run token.

Recorded runs can later be compared against a fresh execution with
the replay command. Recording the same run twice is a no-op.

Exit codes:
  0 - All scenarios recorded
  1 - A scenario diverged or failed during execution
  2 - Command error (invalid paths, database errors, etc.)

Examples:
  retrace record ./scenarios --db traces.db
  retrace record ./scenarios/counter-basic.yaml --db traces.db
  retrace record ./scenarios --db traces.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, reg, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to the trace database (required)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runRecord(opts *RecordOptions, reg *component.Registry, paths []string, cmd *cobra.Command) error {
	scenarioFiles, err := collectScenarioFiles(paths, opts.Filter)
	if err != nil {
		return err
	}
	if len(scenarioFiles) == 0 {
		return NewExitError(ExitCommandError, "no scenarios found")
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening trace database", err)
	}
	defer st.Close()

	logger := commandLogger(cmd, opts.RootOptions)
	h := harness.New(reg, harness.WithLogger(logger))
	tokens := sim.UUIDv7Generator{}

	result := RecordResult{
		Runs:     make([]RecordedRun, 0, len(scenarioFiles)),
		Database: opts.DBPath,
	}

	for _, scenarioFile := range scenarioFiles {
		rawYAML, err := os.ReadFile(scenarioFile)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("reading %s", scenarioFile), err)
		}

		scenario, err := harness.LoadScenario(scenarioFile)
		if err != nil {
			return NewExitError(ExitFailure, fmt.Sprintf("%s: %v", filepath.Base(scenarioFile), err))
		}

		// A tokenless scenario gets a fresh token per recording. Reusing the
		// harness default here would collide in the run_token column and
		// silently drop every recording after the first.
		if scenario.RunToken == "" {
			scenario.RunToken = tokens.Generate()
		}

		runResult, err := h.Run(scenario)
		if err != nil {
			return NewExitError(ExitFailure, fmt.Sprintf("%s: %v", scenario.Name, err))
		}
		if !runResult.Pass {
			return NewExitError(ExitFailure,
				fmt.Sprintf("%s: refusing to record a failing run: %s", scenario.Name, runResult.Errors[0]))
		}

		runID, err := st.WriteRun(cmd.Context(), scenario.Name, string(rawYAML), runResult.Trace)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("recording %s", scenario.Name), err)
		}

		result.Runs = append(result.Runs, RecordedRun{
			Name:     scenario.Name,
			RunToken: runResult.Trace.RunToken,
			RunID:    runID,
			Entries:  len(runResult.Trace.Entries),
		})

		if opts.Format != "json" {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s recorded (token %s, %d entries)\n",
				scenario.Name, runResult.Trace.RunToken, len(runResult.Trace.Entries))
		}
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: result})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nRecorded %d run(s) into %s\n", len(result.Runs), opts.DBPath)
	return nil
}
