package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/worktree"
)

func newWorktreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktree",
		Short: "manage independent checkouts of prompt versions",
	}
	cmd.AddCommand(
		newWorktreeAddCmd(),
		newWorktreeListCmd(),
		newWorktreeRemoveCmd(),
		newWorktreeCommitCmd(),
		newWorktreeWatchCmd(),
		newWorktreePruneCmd(),
	)
	return cmd
}

func newWorktreeAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add PATH NAME [VERSION]",
		Short: "check a prompt version out into a new directory",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			prompt, err := p.prompt(ctx, args[1])
			if err != nil {
				return err
			}

			number := 0
			var content string
			if len(args) == 3 {
				if number, err = parseVersionArg(args[2]); err != nil {
					return err
				}
				version, err := p.version(ctx, prompt, number)
				if err != nil {
					return err
				}
				content = version.Content
			} else {
				latest, err := p.db.LatestVersion(ctx, prompt.ID)
				if err != nil {
					return err
				}
				if latest == nil {
					return fmt.Errorf("prompt %q has no versions yet", prompt.Name)
				}
				content = latest.Content
			}

			w, err := worktree.NewManager(p.root).Create(args[0], prompt.Name, prompt.ID, content, number)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created worktree at %s (%s)\n", w.Path, w.ContentPath())
			return nil
		},
	}
}

func newWorktreeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list active worktrees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			active, err := worktree.NewManager(p.root).List()
			if err != nil {
				return err
			}
			if len(active) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no worktrees")
				return nil
			}
			for _, w := range active {
				version := "current"
				if w.CheckedOutVersion > 0 {
					version = fmt.Sprintf("v%d", w.CheckedOutVersion)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%s)\n", w.Path, w.PromptName, version)
			}
			return nil
		},
	}
}

func newWorktreeRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove PATH",
		Short: "remove a worktree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			if err := worktree.NewManager(p.root).Remove(args[0], force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed worktree %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "remove even with extra files present")
	return cmd
}

func newWorktreeCommitCmd() *cobra.Command {
	var message, author string

	cmd := &cobra.Command{
		Use:   "commit PATH",
		Short: "commit a worktree's edited content as a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			mgr := worktree.NewManager(p.root)
			w, err := mgr.Get(args[0])
			if err != nil {
				return err
			}
			if w == nil {
				return fmt.Errorf("%s is not a tracked worktree", args[0])
			}

			content, err := os.ReadFile(w.ContentPath())
			if err != nil {
				return fmt.Errorf("failed to read worktree content: %w", err)
			}
			if message == "" {
				return fmt.Errorf("a commit message is required (-m)")
			}

			prompt, err := p.prompt(ctx, w.PromptName)
			if err != nil {
				return err
			}
			v, err := p.commitVersion(ctx, prompt, string(content), message, p.author(author), true)
			if err != nil {
				return err
			}
			if _, err := mgr.UpdateVersion(w.Path, v.VersionNumber); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s v%d] %s\n", prompt.Name, v.VersionNumber, message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", "author (defaults to project config)")
	return cmd
}

func newWorktreeWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch PATH",
		Short: "watch a worktree and report edits until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			w, err := worktree.NewManager(p.root).Get(args[0])
			if err != nil {
				return err
			}
			if w == nil {
				return fmt.Errorf("%s is not a tracked worktree", args[0])
			}

			watcher, err := worktree.NewWatcher(w.Path, nil)
			if err != nil {
				return err
			}
			watcher.OnChange(func(paths []string) {
				for _, path := range paths {
					fmt.Fprintf(cmd.OutOrStdout(), "changed: %s\n", path)
				}
			})
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s (ctrl-c to stop)\n", w.Path)
			<-ctx.Done()
			return nil
		},
	}
}

func newWorktreePruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "remove worktrees unused for longer than the cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			removed, err := worktree.NewManager(p.root).PruneStale(time.Duration(days) * 24 * time.Hour)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to prune")
				return nil
			}
			for _, w := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %s (%s)\n", w.Path, w.PromptName)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "prune worktrees unused for this many days")
	return cmd
}
