package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/stash"
)

func newStashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stash",
		Short: "set work-in-progress prompt content aside without committing",
	}
	cmd.AddCommand(
		newStashPushCmd(),
		newStashListCmd(),
		newStashShowCmd(),
		newStashPopCmd(),
		newStashDropCmd(),
		newStashClearCmd(),
	)
	return cmd
}

func newStashPushCmd() *cobra.Command {
	var contentFile, content, message, testInput, author string

	cmd := &cobra.Command{
		Use:   "push NAME",
		Short: "stash work-in-progress content for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			prompt, err := p.prompt(ctx, args[0])
			if err != nil {
				return err
			}
			text, err := readContent(contentFile, content)
			if err != nil {
				return err
			}

			entry, err := stash.NewManager(p.root).Push(
				prompt.Name, prompt.ID, text, message, testInput, p.author(author))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stashed %s as stash@{%d} (%s)\n",
				prompt.Name, entry.Index, entry.ContentHash())
			return nil
		},
	}
	cmd.Flags().StringVarP(&contentFile, "file", "f", "", "read content from file")
	cmd.Flags().StringVarP(&content, "content", "c", "", "content literal")
	cmd.Flags().StringVarP(&message, "message", "m", "", "what this work in progress is")
	cmd.Flags().StringVarP(&testInput, "input", "i", "", "test input associated with this draft")
	cmd.Flags().StringVar(&author, "author", "", "author (defaults to project config)")
	return cmd
}

func newStashListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stash entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			entries, err := stash.NewManager(p.root).List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "stash is empty")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "stash@{%d}: %s  %s  %s\n",
					e.Index, e.PromptName, e.ContentHash(), e.Message)
			}
			return nil
		},
	}
}

func newStashShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [INDEX]",
		Short: "print a stash entry without removing it",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			mgr := stash.NewManager(p.root)
			index, err := stashIndexArg(mgr, args)
			if err != nil {
				return err
			}
			entry, err := mgr.Show(index)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("no stash entry at index %d", index)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stash@{%d}: %s (%s)\n", entry.Index, entry.PromptName, entry.ContentHash())
			if entry.Message != "" {
				fmt.Fprintf(out, "message: %s\n", entry.Message)
			}
			if entry.TestInput != "" {
				fmt.Fprintf(out, "input:   %s\n", entry.TestInput)
			}
			fmt.Fprintf(out, "\n%s\n", entry.Content)
			return nil
		},
	}
}

func newStashPopCmd() *cobra.Command {
	var commit bool
	var message string

	cmd := &cobra.Command{
		Use:   "pop [INDEX]",
		Short: "remove a stash entry, optionally committing it as a new version",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			mgr := stash.NewManager(p.root)
			index, err := stashIndexArg(mgr, args)
			if err != nil {
				return err
			}
			entry, err := mgr.Pop(index)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("no stash entry at index %d", index)
			}

			if !commit {
				fmt.Fprintf(cmd.OutOrStdout(), "popped stash@{%d} (%s):\n\n%s\n",
					index, entry.PromptName, entry.Content)
				return nil
			}

			prompt, err := p.prompt(ctx, entry.PromptName)
			if err != nil {
				return err
			}
			if message == "" {
				message = entry.Message
				if message == "" {
					message = "restore stashed work"
				}
			}
			v, err := p.commitVersion(ctx, prompt, entry.Content, message, entry.Author, true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s v%d] %s\n", prompt.Name, v.VersionNumber, message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the popped content as a new version")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message (defaults to the stash message)")
	return cmd
}

func newStashDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop INDEX",
		Short: "delete one stash entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid stash index %q", args[0])
			}
			dropped, err := stash.NewManager(p.root).Drop(index)
			if err != nil {
				return err
			}
			if !dropped {
				return fmt.Errorf("no stash entry at index %d", index)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped stash@{%d}\n", index)
			return nil
		},
	}
}

func newStashClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "delete all stash entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			n, err := stash.NewManager(p.root).Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d stash entr%s\n", n, plural(n, "y", "ies"))
			return nil
		},
	}
}

// stashIndexArg resolves an optional index argument, defaulting to the
// newest entry.
func stashIndexArg(mgr *stash.Manager, args []string) (int, error) {
	if len(args) == 1 {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, fmt.Errorf("invalid stash index %q", args[0])
		}
		return index, nil
	}
	count, err := mgr.Count()
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("stash is empty")
	}
	return count - 1, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
