package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load every workflow script and report failures",
		Long: `Load every workflow script the way the engine does and print which
scripts loaded and which were skipped. Exits non-zero when any script failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), g, cmd.OutOrStdout())
		},
	}
}

func runCheck(ctx context.Context, g *GlobalOptions, out io.Writer) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.engine.Reload(ctx)
	if err != nil {
		return err
	}

	for _, id := range report.Loaded {
		fmt.Fprintf(out, "%s %s\n", okStyle.Render("✓"), id)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(out, "%s %s\n  %s\n", failStyle.Render("✗"), f.File, f.Err)
	}
	fmt.Fprintf(out, "\n%d loaded, %d failed\n", len(report.Loaded), len(report.Failures))

	if !report.OK() {
		return fmt.Errorf("%d workflow script(s) failed to load", len(report.Failures))
	}
	return nil
}
