package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/chazuruo/relagit/internal/config"
	"github.com/chazuruo/relagit/internal/workflows/store"
)

// exampleName is the workflow written by init --example.
const exampleName = "example.ts"

const exampleWorkflow = `import { Workflow, context } from "relagit:actions";

export default new Workflow({
	name: "Log commits",
	description: "Prints the repository and message of every commit.",
	on: "commit",
	steps: [
		{
			name: "log",
			run: (_event, repository, draft) => {
				console.log(repository?.name ?? context().Repository.path, draft?.summary);
			},
		},
	],
});
`

// InitOptions contains the options for the init command.
type InitOptions struct {
	Root    string
	Example bool
	Force   bool
}

// NewInitCommand creates the init command.
func NewInitCommand(g *GlobalOptions) *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the relagit directory, config and workflow stub",
		Long: `Initialize relagit.

Creates the config root (default ~/.relagit), writes config.toml when it does
not exist yet, creates the workflow directory and writes the index.d.ts
declaration stub editors use for type checking.

Use --example to also write an example workflow.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("example") && g.Interactive(nil) {
				if err := huh.NewConfirm().
					Title("Create an example workflow?").
					Value(&opts.Example).
					Run(); err != nil {
					return fmt.Errorf("form error: %w", err)
				}
			}
			return runInit(g, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", "", "config root directory (default ~/.relagit)")
	cmd.Flags().BoolVar(&opts.Example, "example", false, "write an example workflow")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing config file")

	return cmd
}

func runInit(g *GlobalOptions, opts *InitOptions, out io.Writer) error {
	cfg := config.DefaultConfig()
	if opts.Root != "" {
		root, err := filepath.Abs(opts.Root)
		if err != nil {
			return fmt.Errorf("failed to resolve root: %w", err)
		}
		cfg.Paths.Root = root
	}

	configPath := g.ConfigPath
	if configPath == "" {
		configPath = filepath.Join(cfg.Paths.Root, "config.toml")
	}

	_, statErr := os.Stat(configPath)
	switch {
	case statErr == nil && !opts.Force:
		fmt.Fprintf(out, "Config exists: %s\n", configPath)
		existing, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = existing
	case statErr == nil || errors.Is(statErr, os.ErrNotExist):
		if err := config.Write(configPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote config: %s\n", configPath)
	default:
		return fmt.Errorf("failed to stat config file: %w", statErr)
	}

	st := store.New(cfg.WorkflowsPath())
	created, err := st.EnsureWorkflowDirectory()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Workflow directory: %s\n", created)

	written, err := st.EnsureTypeStub()
	if err != nil {
		return err
	}
	if written {
		fmt.Fprintf(out, "Wrote declaration stub: %s\n", st.Path(store.StubName))
	}

	if opts.Example {
		path := st.Path(exampleName)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		switch {
		case errors.Is(err, os.ErrExist):
			fmt.Fprintf(out, "Example exists: %s\n", path)
		case err != nil:
			return fmt.Errorf("failed to write example workflow: %w", err)
		default:
			_, werr := f.WriteString(exampleWorkflow)
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				return fmt.Errorf("failed to write example workflow: %w", werr)
			}
			fmt.Fprintf(out, "Wrote example workflow: %s\n", path)
		}
	}

	return nil
}
