package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/harness"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationIssue describes one invalid file.
type ValidationIssue struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// ValidateResult holds the overall validation result.
type ValidateResult struct {
	Declarations []string          `json:"declarations"`
	Scenarios    []string          `json:"scenarios"`
	Issues       []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <dir>",
		Short: "Validate component declarations and scenarios",
		Long: `Compile the CUE component declarations under a directory and parse
its scenario YAML files, reporting every problem found.

Exit codes:
  0 - Everything valid
  1 - Invalid declarations or scenarios
  2 - Command error (invalid paths, etc.)

Examples:
  retrace validate ./components
  retrace validate ./components --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, dir string, cmd *cobra.Command) error {
	result := ValidateResult{
		Declarations: []string{},
		Scenarios:    []string{},
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "scanning directory", err)
	}
	scenarioFiles, err := FindScenarioFiles(dir, "")
	if err != nil {
		return WrapExitError(ExitCommandError, "scanning directory", err)
	}
	if len(cueFiles) == 0 && len(scenarioFiles) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no CUE or scenario files found in %s", dir))
	}

	if len(cueFiles) > 0 {
		decls, err := LoadDeclarations(dir)
		if err != nil {
			result.Issues = append(result.Issues, ValidationIssue{
				File:    dir,
				Message: err.Error(),
			})
		} else {
			for _, decl := range decls {
				result.Declarations = append(result.Declarations, decl.Name)
			}
		}
	}

	for _, scenarioFile := range scenarioFiles {
		scenario, err := harness.LoadScenario(scenarioFile)
		if err != nil {
			result.Issues = append(result.Issues, ValidationIssue{
				File:    scenarioFile,
				Message: err.Error(),
			})
			continue
		}
		result.Scenarios = append(result.Scenarios, scenario.Name)
	}

	if opts.Format == "json" {
		return outputValidateJSON(cmd, result)
	}
	return outputValidateText(cmd, result)
}

func outputValidateJSON(cmd *cobra.Command, result ValidateResult) error {
	status := "ok"
	response := CLIResponse{Status: status, Data: result}
	if len(result.Issues) > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_VALIDATION_FAILED",
			Message: fmt.Sprintf("%d file(s) invalid", len(result.Issues)),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if len(result.Issues) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) invalid", len(result.Issues)))
	}
	return nil
}

func outputValidateText(cmd *cobra.Command, result ValidateResult) error {
	w := cmd.OutOrStdout()

	for _, name := range result.Declarations {
		fmt.Fprintf(w, "✓ declaration %s\n", name)
	}
	for _, name := range result.Scenarios {
		fmt.Fprintf(w, "✓ scenario %s\n", name)
	}
	for _, issue := range result.Issues {
		fmt.Fprintf(w, "✗ %s\n  %s\n", filepath.Base(issue.File), issue.Message)
	}

	if len(result.Issues) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) invalid", len(result.Issues)))
	}

	fmt.Fprintln(w, "✓ All files valid")
	return nil
}
