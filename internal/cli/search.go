package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/search"
)

func newSearchCmd() *cobra.Command {
	var promptFilter string
	var limit int
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "full-text search across version content, messages and tags",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			idx, err := search.Open(p.root)
			if err != nil {
				return err
			}
			defer idx.Close()

			if rebuild {
				if err := idx.Rebuild(ctx, p.db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "search index rebuilt")
				if len(args) == 0 {
					return nil
				}
			}
			if len(args) == 0 {
				return fmt.Errorf("a search query is required")
			}

			results, err := idx.Search(args[0], promptFilter, limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no matches")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s v%d  (score %.2f)\n", r.PromptName, r.VersionNumber, r.Score)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&promptFilter, "prompt", "p", "", "restrict to one prompt")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "rebuild the index from the store first")
	return cmd
}
