package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/component"
	"github.com/retracehq/retrace/internal/harness"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario verification.
type ScenarioResult struct {
	Name            string   `json:"name"`
	Pass            bool     `json:"pass"`
	Errors          []string `json:"errors,omitempty"`
	UndeclaredReads []string `json:"undeclared_reads,omitempty"`
}

// VerifyResult holds the overall verification result.
type VerifyResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions, reg *component.Registry) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <scenario>...",
		Short: "Verify scenario traces against expectations",
		Long: `Run scenario files against the component registry and verify
the produced render traces against expected entries and assertions.

Each argument may be a scenario YAML file or a directory that is
scanned recursively for .yaml/.yml files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios diverged or failed assertions
  2 - Command error (invalid paths, unparseable scenarios, etc.)

Examples:
  retrace verify ./scenarios
  retrace verify ./scenarios/counter-basic.yaml
  retrace verify ./scenarios --filter "counter-*"
  retrace verify ./scenarios --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, reg, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runVerify(opts *VerifyOptions, reg *component.Registry, paths []string, cmd *cobra.Command) error {
	scenarioFiles, err := collectScenarioFiles(paths, opts.Filter)
	if err != nil {
		return err
	}

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputVerifyJSON(cmd, VerifyResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := VerifyResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	for _, scenarioFile := range scenarioFiles {
		scenResult := verifyScenario(scenarioFile, reg, opts, cmd)
		result.Scenarios = append(result.Scenarios, scenResult)

		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputVerifyJSON(cmd, result)
	}
	return outputVerifyText(cmd, result)
}

// collectScenarioFiles expands file and directory arguments into a
// sorted list of scenario files.
func collectScenarioFiles(paths []string, filter string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", path))
		}
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "error accessing scenario path", err)
		}
		if info.IsDir() {
			found, err := FindScenarioFiles(path, filter)
			if err != nil {
				return nil, WrapExitError(ExitCommandError, "error scanning scenarios", err)
			}
			files = append(files, found...)
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

// verifyScenario runs a single scenario file and reports its outcome.
func verifyScenario(scenarioFile string, reg *component.Registry, opts *VerifyOptions, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()
	logger := commandLogger(cmd, opts.RootOptions)

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n", filepath.Base(scenarioFile))
			fmt.Fprintf(w, "  Load error: %v\n", err)
		}
		return ScenarioResult{
			Name:   filepath.Base(scenarioFile),
			Pass:   false,
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	h := harness.New(reg, harness.WithLogger(logger))
	result, err := h.Run(scenario)
	if err != nil {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n", scenario.Name)
			fmt.Fprintf(w, "  Execution error: %v\n", err)
		}
		return ScenarioResult{
			Name:   scenario.Name,
			Pass:   false,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	if !result.Pass {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n", scenario.Name)
			for _, e := range result.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return ScenarioResult{
			Name:            scenario.Name,
			Pass:            false,
			Errors:          result.Errors,
			UndeclaredReads: result.UndeclaredReads,
		}
	}

	if opts.Format != "json" {
		fmt.Fprintf(w, "✓ %s\n", scenario.Name)
		if opts.Verbose {
			for _, prop := range result.UndeclaredReads {
				fmt.Fprintf(w, "  warning: undeclared prop read: %s\n", prop)
			}
		}
	}
	return ScenarioResult{
		Name:            scenario.Name,
		Pass:            true,
		UndeclaredReads: result.UndeclaredReads,
	}
}

// outputVerifyJSON outputs the verification result as JSON.
func outputVerifyJSON(cmd *cobra.Command, result VerifyResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   result,
	}

	if result.Failed > 0 {
		response.Error = &CLIError{
			Code:    "E_VERIFY_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputVerifyText outputs the verification result as text.
func outputVerifyText(cmd *cobra.Command, result VerifyResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Verify Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
