package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/semdiff"
	"github.com/promptpit/pit/internal/textdiff"
)

func newDiffCmd() *cobra.Command {
	var semantic bool

	cmd := &cobra.Command{
		Use:   "diff NAME VERSION1 VERSION2",
		Short: "show the textual diff between two versions",
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

			out := cmd.OutOrStdout()
			diff := textdiff.Unified(v1.Content, v2.Content,
				fmt.Sprintf("%s v%d", prompt.Name, n1), fmt.Sprintf("%s v%d", prompt.Name, n2))
			if diff == "" {
				fmt.Fprintln(out, "no textual changes")
			} else {
				fmt.Fprint(out, diff)
			}

			if semantic {
				provider, err := semdiff.FromConfig(p.cfg.LLM)
				if err != nil {
					return fmt.Errorf("semantic diff unavailable: %w", err)
				}
				analysis, err := semdiff.NewAnalyzer(provider).AnalyzeDiff(ctx, v1.Content, v2.Content)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n--- semantic diff ---\n%s", semdiff.Format(analysis))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&semantic, "semantic", false, "also run an LLM change analysis")
	return cmd
}
