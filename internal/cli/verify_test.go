package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retracehq/retrace/internal/testutil"
)

const passingScenario = `name: counter-basic
description: Counter increments by its default step and resets to zero.
component: Counter
script:
  - event: increment
  - event: increment
  - event: reset
expected:
  - event: increment
    output: 1
  - event: increment
    output: 2
  - event: reset
    output: 0
`

const divergingScenario = `name: counter-wrong
description: Expects an output the counter never produces.
component: Counter
script:
  - event: increment
expected:
  - event: increment
    output: 42
`

func writeScenarioFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVerifyCommandMissingArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts, testutil.NewFixtureRegistry())
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestVerifyCommandNonExistentPath(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts, testutil.NewFixtureRegistry())
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/scenarios"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario path not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyCommandEmptyDir(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts, testutil.NewFixtureRegistry())
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No scenarios found")
}

func TestVerifyCommandPassingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "counter-basic.yaml", passingScenario)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts, testutil.NewFixtureRegistry())
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ counter-basic")
	assert.Contains(t, buf.String(), "1 passed, 0 failed, 1 total")
	assert.Contains(t, buf.String(), "All scenarios passed")
}

func TestVerifyCommandDivergence(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "counter-wrong.yaml", divergingScenario)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts, testutil.NewFixtureRegistry())
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ counter-wrong")
	assert.Contains(t, buf.String(), "Trace divergence at entry 0")
}

func TestVerifyCommandMixedResults(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "a-pass.yaml", passingScenario)
	writeScenarioFile(t, dir, "b-fail.yaml", divergingScenario)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts, testutil.NewFixtureRegistry())
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "1 passed, 1 failed, 2 total")
}

func TestVerifyCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "counter-basic.yaml", passingScenario)
	writeScenarioFile(t, dir, "counter-wrong.yaml", divergingScenario)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts, testutil.NewFixtureRegistry())
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--filter", "counter-basic*"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 passed, 0 failed, 1 total")
}

func TestVerifyCommandUnknownComponent(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "ghost.yaml", `name: ghost
description: References a component nobody registered.
component: Ghost
script:
  - event: boo
expected:
  - event: boo
    output: 0
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts, testutil.NewFixtureRegistry())
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Execution error")
}

func TestVerifyCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "counter-basic.yaml", passingScenario)
	writeScenarioFile(t, dir, "counter-wrong.yaml", divergingScenario)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewVerifyCommand(rootOpts, testutil.NewFixtureRegistry())
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &response))
	assert.Equal(t, "error", response.Status)
	require.NotNil(t, response.Error)
	assert.Equal(t, "E_VERIFY_FAILED", response.Error.Code)

	data, err := json.Marshal(response.Data)
	require.NoError(t, err)
	var result VerifyResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Total)
}

func TestVerifyHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts, testutil.NewFixtureRegistry())
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "render traces")
	assert.Contains(t, output, "--filter")
	assert.Contains(t, output, "Exit codes")
}
