package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/hooks"
	"github.com/promptpit/pit/internal/merge"
)

func newMergeCmd() *cobra.Command {
	var check bool
	var message, author string

	cmd := &cobra.Command{
		Use:   "merge NAME BASE VERSION_A VERSION_B",
		Short: "semantically merge two versions derived from a common base",
		Long: `Semantically merge two versions derived from a common base.

Each branch's changes against the base are categorized (tone, constraints,
examples, structure, variables, context, intent). When the branches touch
disjoint categories, or only lightly overlap, the merge is applied
automatically and committed as a new version. Conflicting categories are
reported with resolution hints instead.`,
		Args: cobra.ExactArgs(4),
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
			numbers := make([]int, 3)
			for i, arg := range args[1:] {
				if numbers[i], err = parseVersionArg(arg); err != nil {
					return err
				}
			}
			base, err := p.version(ctx, prompt, numbers[0])
			if err != nil {
				return err
			}
			branchA, err := p.version(ctx, prompt, numbers[1])
			if err != nil {
				return err
			}
			branchB, err := p.version(ctx, prompt, numbers[2])
			if err != nil {
				return err
			}

			hookEnv := map[string]string{
				"PROMPT_NAME":  prompt.Name,
				"BASE_VERSION": fmt.Sprintf("%d", base.VersionNumber),
			}
			hookMgr := hooks.NewManager(p.root)
			if result := hookMgr.Run(ctx, hooks.PreMerge, hookEnv); !result.Success {
				return fmt.Errorf("pre-merge hook rejected the merge: %s", result.Message)
			}

			result := merge.NewAnalyzer().AnalyzeMerge(base.Content, branchA.Content, branchB.Content)
			out := cmd.OutOrStdout()
			if !result.Success {
				fmt.Fprintf(out, "merge blocked by %d conflict(s):\n\n", len(result.Conflicts))
				for _, c := range result.Conflicts {
					fmt.Fprintf(out, "conflict in %s:\n", c.Category)
					fmt.Fprintf(out, "  %s\n", c.Description)
					fmt.Fprintf(out, "  branch A: %s\n", firstLine(c.BranchAContent))
					fmt.Fprintf(out, "  branch B: %s\n", firstLine(c.BranchBContent))
					fmt.Fprintf(out, "  hint: %s\n\n", c.ResolutionHint)
				}
				return fmt.Errorf("cannot auto-merge v%d and v%d", branchA.VersionNumber, branchB.VersionNumber)
			}

			fmt.Fprintf(out, "auto-merge succeeded (%d changes combined)\n", len(result.Changes))
			if check {
				fmt.Fprintf(out, "\n%s\n", result.MergedContent)
				return nil
			}

			if message == "" {
				message = fmt.Sprintf("merge v%d and v%d (base v%d)",
					branchA.VersionNumber, branchB.VersionNumber, base.VersionNumber)
			}
			v, err := p.commitVersion(ctx, prompt, result.MergedContent, message, p.author(author), true)
			if err != nil {
				return err
			}

			if result := hookMgr.Run(ctx, hooks.PostMerge, hookEnv); !result.Success {
				fmt.Fprintf(cmd.ErrOrStderr(), "post-merge hook failed: %s\n", result.Message)
			}
			fmt.Fprintf(out, "[%s v%d] %s\n", prompt.Name, v.VersionNumber, message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "analyze and print the merge without committing")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message for the merged version")
	cmd.Flags().StringVar(&author, "author", "", "author (defaults to project config)")
	return cmd
}

func firstLine(text string) string {
	for i, r := range text {
		if r == '\n' {
			return text[:i]
		}
	}
	return text
}
