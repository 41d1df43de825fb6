package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/patch"
)

func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "create and apply portable prompt patches",
	}
	cmd.AddCommand(
		newPatchCreateCmd(),
		newPatchApplyCmd(),
		newPatchPreviewCmd(),
		newPatchShowCmd(),
	)
	return cmd
}

func newPatchCreateCmd() *cobra.Command {
	var output, description, author string

	cmd := &cobra.Command{
		Use:   "create NAME VERSION1 VERSION2",
		Short: "generate a patch file from two versions of a prompt",
		Args:  cobra.ExactArgs(3),
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
			n1, err := parseVersionArg(args[1])
			if err != nil {
				return err
			}
			n2, err := parseVersionArg(args[2])
			if err != nil {
				return err
			}
			v1, err := p.version(ctx, prompt, n1)
			if err != nil {
				return err
			}
			v2, err := p.version(ctx, prompt, n2)
			if err != nil {
				return err
			}

			gen := patch.Generator{Author: p.author(author)}
			pt := gen.Generate(prompt.Name, v1, v2, description)

			if output == "" {
				output = fmt.Sprintf("%s-v%d-v%d", prompt.Name, n1, n2)
			}
			path, err := pt.Save(output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote patch %s (%s)\n", path, pt.Hash())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (extension is added)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "what the patch changes")
	cmd.Flags().StringVar(&author, "author", "", "author (defaults to project config)")
	return cmd
}

func newPatchApplyCmd() *cobra.Command {
	var promptName, message, author string
	var fuzzy bool

	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "apply a patch to a prompt, committing the result as a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			pt, err := patch.Load(args[0])
			if err != nil {
				return err
			}
			if promptName == "" {
				promptName = pt.Metadata.SourcePrompt
			}
			prompt, err := p.prompt(ctx, promptName)
			if err != nil {
				return err
			}
			latest, err := p.db.LatestVersion(ctx, prompt.ID)
			if err != nil {
				return err
			}
			if latest == nil {
				return fmt.Errorf("prompt %q has no versions to patch", prompt.Name)
			}

			var merged string
			switch status := patch.CanApply(pt, latest.Content); status {
			case patch.StatusClean:
				if merged, err = patch.Apply(pt, latest.Content); err != nil {
					return err
				}
			case patch.StatusAlreadyApplied:
				fmt.Fprintf(cmd.OutOrStdout(), "patch %s is already applied\n", pt.Hash())
				return nil
			case patch.StatusBaseMismatch:
				if !fuzzy {
					return fmt.Errorf("content has diverged from the patch base (retry with --fuzzy)")
				}
				var ok bool
				if merged, ok = patch.ApplyFuzzy(pt, latest.Content); !ok {
					return fmt.Errorf("content is too different from the patch base to apply")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "applied fuzzily: the patch's new content replaces the current version")
			}

			if message == "" {
				message = fmt.Sprintf("apply patch %s", pt.Hash())
				if pt.Metadata.Description != "" {
					message = pt.Metadata.Description
				}
			}
			v, err := p.commitVersion(ctx, prompt, merged, message, p.author(author), true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s v%d] %s\n", prompt.Name, v.VersionNumber, message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&promptName, "prompt", "p", "", "target prompt (defaults to the patch's source prompt)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message for the patched version")
	cmd.Flags().StringVar(&author, "author", "", "author (defaults to project config)")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "allow applying onto diverged content when similar enough")
	return cmd
}

func newPatchPreviewCmd() *cobra.Command {
	var promptName string

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "show what applying a patch would do, without committing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			pt, err := patch.Load(args[0])
			if err != nil {
				return err
			}
			if promptName == "" {
				promptName = pt.Metadata.SourcePrompt
			}
			prompt, err := p.prompt(ctx, promptName)
			if err != nil {
				return err
			}
			latest, err := p.db.LatestVersion(ctx, prompt.ID)
			if err != nil {
				return err
			}
			if latest == nil {
				return fmt.Errorf("prompt %q has no versions to patch", prompt.Name)
			}

			fmt.Fprint(cmd.OutOrStdout(), patch.Preview(pt, latest.Content))
			return nil
		},
	}
	cmd.Flags().StringVarP(&promptName, "prompt", "p", "", "target prompt (defaults to the patch's source prompt)")
	return cmd
}

func newPatchShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "print a patch file's metadata and diff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := patch.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "patch:    %s\n", pt.Hash())
			fmt.Fprintf(out, "prompt:   %s (v%d -> v%d)\n",
				pt.Metadata.SourcePrompt, pt.Metadata.SourceVersions[0], pt.Metadata.SourceVersions[1])
			fmt.Fprintf(out, "created:  %s\n", pt.Metadata.CreatedAt)
			if pt.Metadata.Author != "" {
				fmt.Fprintf(out, "author:   %s\n", pt.Metadata.Author)
			}
			if pt.Metadata.Description != "" {
				fmt.Fprintf(out, "describe: %s\n", pt.Metadata.Description)
			}
			fmt.Fprintf(out, "\n%s", pt.TextDiff)
			return nil
		},
	}
}
