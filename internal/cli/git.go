package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chazuruo/relagit/internal/dispatch"
	"github.com/chazuruo/relagit/internal/gitrepo"
	"github.com/chazuruo/relagit/internal/workflows"
)

// CommitOptions contains the options for the commit command.
type CommitOptions struct {
	Message     string
	Description string
	All         bool
}

// NewCommitCommand creates the commit command.
func NewCommitCommand(g *GlobalOptions) *cobra.Command {
	opts := &CommitOptions{}

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit in the selected repository and dispatch commit",
		Long: `Commit the staged changes of the selected repository, then dispatch the
commit event with the repository record and the commit draft.

Workflow failures are reported but never undo the commit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(cmd.Context(), g, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "commit summary (required)")
	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "commit description")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "stage all changes first")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func runCommit(ctx context.Context, g *GlobalOptions, opts *CommitOptions, out io.Writer) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.Close()

	selected, err := s.selected()
	if err != nil {
		return err
	}
	repo := gitrepo.New(selected.Path)

	if opts.All {
		if err := repo.AddAll(ctx); err != nil {
			return err
		}
	}
	hash, err := repo.Commit(ctx, opts.Message, opts.Description)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Committed %s\n", shortHash(hash))

	s.refreshBranch(ctx, repo)

	if err := s.load(ctx); err != nil {
		return err
	}
	record, _ := s.state.GetByPath(selected.Path)
	draft := map[string]any{
		"summary":     opts.Message,
		"description": opts.Description,
		"hash":        hash,
	}
	return s.emit(ctx, out, workflows.EventCommit, record.Fields(), draft)
}

// NewPushCommand creates the push command.
func NewPushCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Push the selected repository and dispatch push",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd.Context(), g, workflows.EventPush, cmd.OutOrStdout())
		},
	}
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the selected repository and dispatch remote_fetch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd.Context(), g, workflows.EventRemoteFetch, cmd.OutOrStdout())
		},
	}
}

func runRemote(ctx context.Context, g *GlobalOptions, event workflows.Event, out io.Writer) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.Close()

	selected, err := s.selected()
	if err != nil {
		return err
	}
	repo := gitrepo.New(selected.Path)
	remote := s.cfg.Git.Remote

	switch event {
	case workflows.EventPush:
		err = repo.Push(ctx, remote, "")
	default:
		err = repo.Fetch(ctx, remote)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s: done\n", event, remote)

	if err := s.load(ctx); err != nil {
		return err
	}
	record, _ := s.state.GetByPath(selected.Path)
	return s.emit(ctx, out, event, record.Fields(), map[string]any{"remote": remote})
}

// emit dispatches event and prints the outcome. Workflow failures are shown
// in the report and never turn into a command error.
func (s *session) emit(ctx context.Context, out io.Writer, event workflows.Event, params ...any) error {
	var background *dispatch.Report
	s.engine.OnBackgroundDone(func(r dispatch.Report) { background = &r })

	report, err := s.engine.Emit(ctx, event, params...)
	if err != nil {
		return err
	}
	// A one-shot command must not exit before background dispatches finish.
	s.engine.Wait()
	if report == nil {
		report = background
	}
	printReport(out, string(event), report)
	return nil
}

// refreshBranch records the checked-out branch in host state.
func (s *session) refreshBranch(ctx context.Context, repo gitrepo.Repo) {
	branch, err := repo.GetCurrentBranch(ctx)
	if err != nil {
		s.logger.Debug("could not read branch", "repo", repo.Path(), "error", err)
		return
	}
	if s.state.SetBranch(repo.Path(), branch) {
		if err := s.state.Save(); err != nil {
			s.logger.Warn("failed to save state", "error", err)
		}
	}
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
