package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	DBPath   string
	RunToken string
}

// RunListing describes one stored run for listings.
type RunListing struct {
	RunToken  string `json:"run_token"`
	Scenario  string `json:"scenario"`
	Component string `json:"component"`
	RunID     string `json:"run_id"`
	CreatedAt string `json:"created_at"`
}

// TraceEntryView is one trace entry in display form.
type TraceEntryView struct {
	Index   int             `json:"index"`
	Event   string          `json:"event"`
	Args    json.RawMessage `json:"args,omitempty"`
	Output  json.RawMessage `json:"output,omitempty"`
	Thrown  string          `json:"thrown,omitempty"`
	EventID string          `json:"event_id"`
}

// TraceView is a stored trace in display form.
type TraceView struct {
	RunToken  string           `json:"run_token"`
	Scenario  string           `json:"scenario"`
	Component string           `json:"component"`
	RunID     string           `json:"run_id"`
	Entries   []TraceEntryView `json:"entries"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded traces",
		Long: `Print a recorded trace, or list the recorded runs when no run
token is given.

Exit codes:
  0 - Success
  2 - Command error (missing run, database errors, etc.)

Examples:
  retrace trace --db traces.db
  retrace trace --db traces.db --run golden-counter-1
  retrace trace --db traces.db --run golden-counter-1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to the trace database (required)")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "run token of the recorded run")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening trace database", err)
	}
	defer st.Close()

	if opts.RunToken == "" {
		return listRuns(opts, st, cmd)
	}
	return showTrace(opts, st, cmd)
}

func listRuns(opts *TraceOptions, st *store.Store, cmd *cobra.Command) error {
	records, err := st.ListRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "listing runs", err)
	}

	listings := make([]RunListing, 0, len(records))
	for _, rec := range records {
		listings = append(listings, RunListing{
			RunToken:  rec.RunToken,
			Scenario:  rec.Scenario,
			Component: rec.Component,
			RunID:     rec.ID,
			CreatedAt: rec.CreatedAt,
		})
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: listings})
	}

	w := cmd.OutOrStdout()
	if len(listings) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}
	for _, l := range listings {
		fmt.Fprintf(w, "%s  %s (%s) recorded %s\n", l.RunToken, l.Scenario, l.Component, l.CreatedAt)
	}
	return nil
}

func showTrace(opts *TraceOptions, st *store.Store, cmd *cobra.Command) error {
	ctx := cmd.Context()

	rec, err := st.ReadRun(ctx, opts.RunToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading run", err)
	}
	trace, err := st.ReadTrace(ctx, opts.RunToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading trace", err)
	}

	if opts.Format == "json" {
		view := TraceView{
			RunToken:  rec.RunToken,
			Scenario:  rec.Scenario,
			Component: rec.Component,
			RunID:     rec.ID,
			Entries:   make([]TraceEntryView, 0, len(trace.Entries)),
		}
		for _, e := range trace.Entries {
			entry := TraceEntryView{
				Index:   e.Index,
				Event:   e.Event.Name,
				EventID: e.EventID,
			}
			if len(e.Event.Args) > 0 {
				args, err := ir.MarshalCanonical(e.Event.Args)
				if err != nil {
					return WrapExitError(ExitCommandError, "formatting trace", err)
				}
				entry.Args = args
			}
			if e.IsThrown() {
				entry.Thrown = e.Thrown
			} else {
				output, err := ir.MarshalCanonical(e.Output)
				if err != nil {
					return WrapExitError(ExitCommandError, "formatting trace", err)
				}
				entry.Output = output
			}
			view.Entries = append(view.Entries, entry)
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: &view})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run %s (scenario %s, recorded %s)\n", rec.RunToken, rec.Scenario, rec.CreatedAt)
	fmt.Fprint(w, trace.Format())
	return nil
}
