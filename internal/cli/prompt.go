package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/hooks"
	"github.com/promptpit/pit/internal/semdiff"
)

func newPromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "create and manage prompts",
	}
	cmd.AddCommand(
		newPromptCreateCmd(),
		newPromptCommitCmd(),
		newPromptShowCmd(),
		newPromptCheckoutCmd(),
		newPromptListCmd(),
		newPromptTagCmd(),
		newPromptDeleteCmd(),
	)
	return cmd
}

func newPromptCreateCmd() *cobra.Command {
	var description, contentFile, content, message, author string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "create a new prompt, optionally with its first version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			prompt, err := p.db.CreatePrompt(ctx, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created prompt %q\n", prompt.Name)

			if contentFile == "" && content == "" {
				return nil
			}
			text, err := readContent(contentFile, content)
			if err != nil {
				return err
			}
			if message == "" {
				message = "initial version"
			}
			v, err := p.commitVersion(ctx, prompt, text, message, p.author(author), true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "committed version %d\n", v.VersionNumber)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "prompt description")
	cmd.Flags().StringVarP(&contentFile, "file", "f", "", "read initial content from file")
	cmd.Flags().StringVarP(&content, "content", "c", "", "initial content literal")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message for the initial version")
	cmd.Flags().StringVar(&author, "author", "", "author (defaults to project config)")
	return cmd
}

func newPromptCommitCmd() *cobra.Command {
	var contentFile, content, message, author string
	var noSemantic bool

	cmd := &cobra.Command{
		Use:   "commit NAME",
		Short: "commit a new version of a prompt",
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
			if message == "" {
				return fmt.Errorf("a commit message is required (-m)")
			}

			v, err := p.commitVersion(ctx, prompt, text, message, p.author(author), !noSemantic)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s v%d] %s\n", prompt.Name, v.VersionNumber, message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&contentFile, "file", "f", "", "read content from file")
	cmd.Flags().StringVarP(&content, "content", "c", "", "content literal")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", "author (defaults to project config)")
	cmd.Flags().BoolVar(&noSemantic, "no-semantic", false, "skip the semantic diff annotation")
	return cmd
}

func newPromptShowCmd() *cobra.Command {
	var showSemantic bool

	cmd := &cobra.Command{
		Use:   "show NAME [VERSION]",
		Short: "print a version's content (latest by default)",
		Args:  cobra.RangeArgs(1, 2),
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

			v, err := p.db.LatestVersion(ctx, prompt.ID)
			if err != nil {
				return err
			}
			if len(args) == 2 {
				number, err := parseVersionArg(args[1])
				if err != nil {
					return err
				}
				if v, err = p.version(ctx, prompt, number); err != nil {
					return err
				}
			}
			if v == nil {
				return fmt.Errorf("prompt %q has no versions yet", prompt.Name)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "prompt:  %s\n", prompt.Name)
			fmt.Fprintf(out, "version: %d\n", v.VersionNumber)
			fmt.Fprintf(out, "message: %s\n", v.Message)
			if v.Author != "" {
				fmt.Fprintf(out, "author:  %s\n", v.Author)
			}
			if len(v.Tags) > 0 {
				fmt.Fprintf(out, "tags:    %s\n", strings.Join(v.Tags, ", "))
			}
			if len(v.Variables) > 0 {
				fmt.Fprintf(out, "vars:    %s\n", strings.Join(v.Variables, ", "))
			}
			fmt.Fprintf(out, "\n%s\n", v.Content)

			if showSemantic && v.SemanticDiff != nil {
				fmt.Fprintf(out, "\n--- semantic diff ---\n%s", semdiff.Format(v.SemanticDiff))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSemantic, "semantic", false, "include the stored semantic diff annotation")
	return cmd
}

func newPromptCheckoutCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "checkout NAME VERSION",
		Short: "write a version's content to a working file",
		Args:  cobra.ExactArgs(2),
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
			number, err := parseVersionArg(args[1])
			if err != nil {
				return err
			}
			v, err := p.version(ctx, prompt, number)
			if err != nil {
				return err
			}

			hookEnv := map[string]string{
				"PROMPT_NAME":    prompt.Name,
				"VERSION_NUMBER": fmt.Sprintf("%d", v.VersionNumber),
			}
			hookMgr := hooks.NewManager(p.root)
			if result := hookMgr.Run(ctx, hooks.PreCheckout, hookEnv); !result.Success {
				return fmt.Errorf("pre-checkout hook rejected the checkout: %s", result.Message)
			}

			if outputFile == "" {
				outputFile = prompt.Name + ".md"
			}
			if err := os.WriteFile(outputFile, []byte(v.Content), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputFile, err)
			}

			if result := hookMgr.Run(ctx, hooks.PostCheckout, hookEnv); !result.Success {
				fmt.Fprintf(cmd.ErrOrStderr(), "post-checkout hook failed: %s\n", result.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked out %s v%d to %s\n", prompt.Name, v.VersionNumber, outputFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default NAME.md)")
	return cmd
}

func newPromptListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list all prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			prompts, err := p.db.ListPrompts(ctx)
			if err != nil {
				return err
			}
			if len(prompts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no prompts yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSIONS\tDESCRIPTION")
			for _, prompt := range prompts {
				versions, err := p.db.ListVersions(ctx, prompt.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", prompt.Name, len(versions), prompt.Description)
			}
			return w.Flush()
		},
	}
}

func newPromptDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "delete a prompt and its whole version history",
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
			if len(versions) > 0 && !force {
				return fmt.Errorf("prompt %q has %d versions; re-run with --force to delete them", prompt.Name, len(versions))
			}

			if err := p.db.DeletePrompt(ctx, prompt.ID); err != nil {
				return err
			}
			p.unindexVersions(versions)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted prompt %q\n", prompt.Name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete even when versions exist")
	return cmd
}

func newPromptTagCmd() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "tag NAME VERSION TAG",
		Short: "attach or remove a tag on a version",
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
			number, err := parseVersionArg(args[1])
			if err != nil {
				return err
			}
			v, err := p.version(ctx, prompt, number)
			if err != nil {
				return err
			}

			tag := args[2]
			if remove {
				if err := p.db.RemoveTag(ctx, v, tag); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed tag %q from %s v%d\n", tag, prompt.Name, number)
			} else {
				if err := p.db.AddTag(ctx, v, tag); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tagged %s v%d with %q\n", prompt.Name, number, tag)
			}
			p.indexVersion(prompt.Name, v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the tag instead of adding it")
	return cmd
}
