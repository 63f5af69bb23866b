package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chazuruo/relagit/internal/gitrepo"
	"github.com/chazuruo/relagit/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload workflows on change and dispatch Git events as they happen",
		Long: `Keep the engine running. Workflow scripts are reloaded when they change,
and commits and fetches in the selected repository dispatch commit and
remote_fetch. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, g, cmd.OutOrStdout())
		},
	}
}

func runWatch(ctx context.Context, g *GlobalOptions, out io.Writer) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.load(ctx); err != nil {
		return err
	}

	opts := []watch.Option{
		watch.WithDebounce(s.cfg.Watch.DebounceDuration()),
		watch.WithLogger(s.logger),
	}
	if selected, err := s.selected(); err == nil {
		gitDir, err := gitrepo.New(selected.Path).GitDir(ctx)
		if err != nil {
			return err
		}
		opts = append(opts, watch.WithGitDir(gitDir))
		fmt.Fprintf(out, "Watching %s\n", selected.Path)
	} else {
		s.logger.Warn("no repository selected; only workflow scripts are watched")
	}

	w := watch.New(s.engine, s.engine.Store().Dir(), opts...)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintf(out, "Watching %s (%d workflow(s) loaded)\n", s.engine.Store().Dir(), s.engine.Len())

	<-ctx.Done()
	return w.Stop()
}
