package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/chazuruo/relagit/internal/gitrepo"
	"github.com/chazuruo/relagit/internal/state"
)

// NewRepoCommand creates the repo command group.
func NewRepoCommand(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage the repositories relagit knows about",
	}
	cmd.AddCommand(newRepoAddCommand(g))
	cmd.AddCommand(newRepoListCommand(g))
	cmd.AddCommand(newRepoSelectCommand(g))
	cmd.AddCommand(newRepoRemoveCommand(g))
	return cmd
}

// RepoAddOptions contains the options for repo add.
type RepoAddOptions struct {
	Name   string
	Select bool
}

func newRepoAddCommand(g *GlobalOptions) *cobra.Command {
	opts := &RepoAddOptions{}
	cmd := &cobra.Command{
		Use:   "add [path]",
		Short: "Register a Git repository (default: current directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runRepoAdd(cmd.Context(), g, opts, path, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name (default: directory name)")
	cmd.Flags().BoolVar(&opts.Select, "select", false, "select the repository after adding it")
	return cmd
}

func runRepoAdd(ctx context.Context, g *GlobalOptions, opts *RepoAddOptions, path string, out io.Writer) error {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		path = wd
	}

	repo := gitrepo.New(path)
	if !repo.IsInitialized(ctx) {
		return fmt.Errorf("%s is not a Git repository", path)
	}
	branch, _ := repo.GetCurrentBranch(ctx)

	st, err := openState(g)
	if err != nil {
		return err
	}
	added, err := st.Add(state.Repository{Path: path, Name: opts.Name, Branch: branch})
	if err != nil {
		return err
	}
	if _, selected := st.Selected(); opts.Select || !selected {
		if _, err := st.Select(added.ID); err != nil {
			return err
		}
	}
	if err := st.Save(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Added %s (%s)\n", added.Name, added.Path)
	return nil
}

// RepoListOptions contains the options for repo list.
type RepoListOptions struct {
	JSON bool
}

func newRepoListCommand(g *GlobalOptions) *cobra.Command {
	opts := &RepoListOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepoList(g, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output in JSON format")
	return cmd
}

func runRepoList(g *GlobalOptions, opts *RepoListOptions, out io.Writer) error {
	st, err := openState(g)
	if err != nil {
		return err
	}
	repos := st.List()
	current, _ := st.Selected()

	if opts.JSON {
		type jsonRepo struct {
			state.Repository
			Selected bool `json:"selected"`
		}
		rows := make([]jsonRepo, len(repos))
		for i, r := range repos {
			rows[i] = jsonRepo{Repository: r, Selected: r.ID == current.ID}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	}

	if len(repos) == 0 {
		fmt.Fprintln(out, "No repositories registered.")
		return nil
	}
	tbl := table.New("", "NAME", "BRANCH", "PATH").WithWriter(out)
	for _, r := range repos {
		mark := ""
		if r.ID == current.ID {
			mark = "*"
		}
		tbl.AddRow(mark, r.Name, r.Branch, r.Path)
	}
	tbl.Print()
	return nil
}

func newRepoSelectCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select [path|id]",
		Short: "Select the repository workflows act on",
		Long: `Select the repository workflows act on. Without an argument an
interactive picker is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			return runRepoSelect(g, ref, cmd.OutOrStdout())
		},
	}
}

func runRepoSelect(g *GlobalOptions, ref string, out io.Writer) error {
	st, err := openState(g)
	if err != nil {
		return err
	}

	if ref == "" {
		repos := st.List()
		if len(repos) == 0 {
			return fmt.Errorf("no repositories registered (run 'relagit repo add')")
		}
		cfg, _ := g.LoadConfig()
		if !g.Interactive(cfg) {
			return fmt.Errorf("repository path or id is required when not interactive")
		}
		options := make([]huh.Option[string], len(repos))
		for i, r := range repos {
			options[i] = huh.NewOption(fmt.Sprintf("%s  %s", r.Name, r.Path), r.ID)
		}
		if err := huh.NewSelect[string]().
			Title("Select repository").
			Options(options...).
			Value(&ref).
			Run(); err != nil {
			return fmt.Errorf("form error: %w", err)
		}
	}

	repo, err := st.Select(ref)
	if err != nil {
		return err
	}
	if err := st.Save(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Selected %s (%s)\n", repo.Name, repo.Path)
	return nil
}

func newRepoRemoveCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path|id>",
		Short: "Forget a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openState(g)
			if err != nil {
				return err
			}
			if !st.Remove(args[0]) {
				return fmt.Errorf("repository %q not found", args[0])
			}
			if err := st.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func openState(g *GlobalOptions) (*state.State, error) {
	cfg, err := g.LoadConfig()
	if err != nil {
		return nil, err
	}
	return state.Open(cfg.StatePath())
}
