package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/chazuruo/relagit/internal/workflows"
)

// OutputFormat defines the output format for the list command.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatPlain OutputFormat = "plain"
)

// ListOptions contains the options for the list command.
type ListOptions struct {
	Event  string
	Format string
}

// NewListCommand creates the list command for listing loaded workflows.
func NewListCommand(g *GlobalOptions) *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loaded workflows",
		Long: `Load every workflow script and list the workflows that loaded.

Examples:
  relagit list                  # List all workflows in table format
  relagit list --event commit   # Only workflows triggered by commit
  relagit list --format json    # List workflows in JSON format`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), g, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Event, "event", "", "only show workflows triggered by this event")
	cmd.Flags().StringVar(&opts.Format, "format", "table", "output format (table, json, plain)")

	return cmd
}

// listedWorkflow is the JSON shape of one workflow.
type listedWorkflow struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	On          []string `json:"on"`
	Steps       int      `json:"steps"`
	Source      string   `json:"source"`
}

func runList(ctx context.Context, g *GlobalOptions, opts *ListOptions, out io.Writer) error {
	switch OutputFormat(opts.Format) {
	case FormatTable, FormatJSON, FormatPlain:
	default:
		return fmt.Errorf("invalid format: %s (must be table, json, or plain)", opts.Format)
	}
	var filter workflows.Event
	if opts.Event != "" {
		e, err := workflows.ParseEvent(opts.Event)
		if err != nil {
			return err
		}
		filter = e
	}

	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.load(ctx); err != nil {
		return err
	}

	var rows []listedWorkflow
	for def := range s.engine.Workflows() {
		if filter != "" && !def.Triggers.Has(filter) {
			continue
		}
		on := make([]string, len(def.Triggers))
		for i, e := range def.Triggers {
			on[i] = string(e)
		}
		rows = append(rows, listedWorkflow{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			On:          on,
			Steps:       len(def.Steps),
			Source:      filepath.Base(def.Source),
		})
	}

	switch OutputFormat(opts.Format) {
	case FormatJSON:
		if rows == nil {
			rows = []listedWorkflow{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	case FormatPlain:
		printPlain(out, rows)
	default:
		printTable(out, rows)
	}
	return nil
}

// printTable prints workflows in table format.
func printTable(out io.Writer, rows []listedWorkflow) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No workflows found.")
		return
	}

	header := lipgloss.NewStyle().Bold(true)
	tbl := table.New("ID", "NAME", "ON", "STEPS", "SOURCE").
		WithWriter(out).
		WithHeaderFormatter(func(format string, vals ...interface{}) string {
			return header.Render(fmt.Sprintf(format, vals...))
		})
	for _, r := range rows {
		tbl.AddRow(r.ID, r.Name, strings.Join(r.On, ", "), r.Steps, r.Source)
	}
	tbl.Print()

	fmt.Fprintf(out, "\nTotal: %d workflow(s)\n", len(rows))
}

// printPlain prints workflows in plain text format.
func printPlain(out io.Writer, rows []listedWorkflow) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No workflows found.")
		return
	}

	for i, r := range rows {
		fmt.Fprintf(out, "%d. %s (%s)\n", i+1, r.Name, r.ID)
		if r.Description != "" {
			fmt.Fprintf(out, "   %s\n", r.Description)
		}
		fmt.Fprintf(out, "   On: %s\n", strings.Join(r.On, ", "))
		fmt.Fprintf(out, "   Steps: %d\n", r.Steps)
		fmt.Fprintf(out, "   Source: %s\n", r.Source)
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Total: %d workflow(s)\n", len(rows))
}
