package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/chazuruo/relagit/internal/workflows"
)

// NewTriggerCommand creates the trigger command.
func NewTriggerCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <event> [param...]",
		Short: "Dispatch an event to the subscribed workflows",
		Long: `Dispatch a lifecycle event by hand.

Each param is decoded as JSON when it parses and passed as a string otherwise.

Examples:
  relagit trigger workflow_dispatch
  relagit trigger release '{"tag":"v1.2.0"}'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrigger(cmd.Context(), g, args[0], args[1:], cmd.OutOrStdout())
		},
	}
}

func runTrigger(ctx context.Context, g *GlobalOptions, tag string, rawParams []string, out io.Writer) error {
	event, err := workflows.ParseEvent(tag)
	if err != nil {
		return err
	}

	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.load(ctx); err != nil {
		return err
	}

	return s.emit(ctx, out, event, parseParams(rawParams)...)
}

// parseParams decodes each argument as JSON, keeping it as a string when it
// is not valid JSON.
func parseParams(raw []string) []any {
	params := make([]any, len(raw))
	for i, r := range raw {
		var v any
		if err := json.Unmarshal([]byte(r), &v); err != nil {
			v = r
		}
		params[i] = v
	}
	return params
}
