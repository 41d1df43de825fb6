package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/bisect"
)

func newBisectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bisect",
		Short: "binary-search version history for the first bad version",
	}
	cmd.AddCommand(
		newBisectStartCmd(),
		newBisectMarkCmd(bisect.VerdictGood, "mark a version as working"),
		newBisectMarkCmd(bisect.VerdictBad, "mark a version as broken"),
		newBisectMarkCmd(bisect.VerdictSkip, "skip an untestable version"),
		newBisectStatusCmd(),
		newBisectResetCmd(),
	)
	return cmd
}

func newBisectStartCmd() *cobra.Command {
	var failingInput string

	cmd := &cobra.Command{
		Use:   "start NAME",
		Short: "start a bisect session over a prompt's versions",
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
			versions, err := p.db.ListVersions(ctx, prompt.ID)
			if err != nil {
				return err
			}
			if len(versions) < 2 {
				return fmt.Errorf("prompt %q has %d versions; bisect needs at least 2", prompt.Name, len(versions))
			}

			mgr := bisect.NewManager(bisect.NewFileStore(p.root))
			if _, err := mgr.Start(prompt.Name, prompt.ID, failingInput); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bisecting %s across %d versions\n", prompt.Name, len(versions))
			fmt.Fprintln(out, "mark a known-good and a known-bad version to begin:")
			fmt.Fprintln(out, "  pit bisect good VERSION")
			fmt.Fprintln(out, "  pit bisect bad VERSION")
			return nil
		},
	}
	cmd.Flags().StringVarP(&failingInput, "input", "i", "", "the input that exposes the failure")
	return cmd
}

func newBisectMarkCmd(verdict bisect.Verdict, short string) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s [VERSION]", verdict),
		Short: short,
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			mgr := bisect.NewManager(bisect.NewFileStore(p.root))
			session, err := mgr.Session()
			if err != nil {
				return err
			}
			if session == nil {
				return fmt.Errorf("no bisect session in progress (run 'pit bisect start' first)")
			}

			versionNum := 0
			if len(args) == 1 {
				if versionNum, err = parseVersionArg(args[0]); err != nil {
					return err
				}
			}

			prompt, err := p.prompt(ctx, session.PromptName)
			if err != nil {
				return err
			}
			versions, err := p.db.ListVersions(ctx, prompt.ID)
			if err != nil {
				return err
			}

			session, err = mgr.MarkVersion(verdict, versionNum, versionNumbers(versions))
			if err != nil {
				return err
			}
			printBisectProgress(cmd, session)
			return nil
		},
	}
}

func newBisectStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "show the current bisect session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			session, err := bisect.NewManager(bisect.NewFileStore(p.root)).Session()
			if err != nil {
				return err
			}
			if session == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no bisect session in progress")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bisecting %s (started %s)\n", session.PromptName, session.StartedAt)
			if session.FailingInput != "" {
				fmt.Fprintf(out, "failing input: %s\n", session.FailingInput)
			}
			fmt.Fprintf(out, "tested: %d versions\n", len(session.TestedVersions))
			printBisectProgress(cmd, session)
			return nil
		},
	}
}

func newBisectResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "abandon the bisect session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			if err := bisect.NewManager(bisect.NewFileStore(p.root)).Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "bisect session cleared")
			return nil
		},
	}
}

func printBisectProgress(cmd *cobra.Command, s *bisect.Session) {
	out := cmd.OutOrStdout()
	if s.State == bisect.StateCompleted {
		fmt.Fprintf(out, "bisect complete: first bad version is v%d\n", s.FirstBadVersion)
		fmt.Fprintf(out, "inspect it with: pit prompt show %s %d\n", s.PromptName, s.FirstBadVersion)
		return
	}
	if s.GoodVersion > 0 {
		fmt.Fprintf(out, "good: v%d\n", s.GoodVersion)
	}
	if s.BadVersion > 0 {
		fmt.Fprintf(out, "bad:  v%d\n", s.BadVersion)
	}
	if remaining, ok := s.Remaining(); ok {
		fmt.Fprintf(out, "%d versions left to test\n", remaining)
	}
	if s.CurrentVersion > 0 {
		fmt.Fprintf(out, "next: test v%d, then mark it good, bad or skip\n", s.CurrentVersion)
	}
}
