package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/query"
	"github.com/promptpit/pit/internal/store"
)

func newLogCmd() *cobra.Command {
	var where string
	var full bool

	cmd := &cobra.Command{
		Use:   "log NAME",
		Short: "show a prompt's version history, optionally filtered",
		Long: `Show a prompt's version history, newest first.

The --where flag filters versions with a query expression:

  pit log greeting --where "success_rate >= 0.9 AND tags contains 'stable'"
  pit log greeting --where "author = 'alice' OR created_at > 2025-01-01"`,
		Args: cobra.ExactArgs(1),
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

			if where != "" {
				q, err := query.Parse(where)
				if err != nil {
					return err
				}
				versions = query.Filter(q, versions)
			}
			if len(versions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no matching versions")
				return nil
			}

			out := cmd.OutOrStdout()
			for i := len(versions) - 1; i >= 0; i-- {
				v := versions[i]
				fmt.Fprintf(out, "v%d  %s", v.VersionNumber, v.CreatedAt.Format("2006-01-02 15:04"))
				if v.Author != "" {
					fmt.Fprintf(out, "  %s", v.Author)
				}
				if len(v.Tags) > 0 {
					fmt.Fprintf(out, "  [%s]", strings.Join(v.Tags, ", "))
				}
				fmt.Fprintf(out, "\n    %s\n", v.Message)
				if full {
					fmt.Fprintf(out, "%s\n", indent(v.Content, "    "))
				}
				printMetrics(cmd, v)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", "filter expression")
	cmd.Flags().BoolVar(&full, "full", false, "include full version content")
	return cmd
}

func printMetrics(cmd *cobra.Command, v store.Version) {
	var parts []string
	if v.SuccessRate != nil {
		parts = append(parts, fmt.Sprintf("success %.0f%%", *v.SuccessRate*100))
	}
	if v.AvgLatencyMs != nil {
		parts = append(parts, fmt.Sprintf("latency %.0fms", *v.AvgLatencyMs))
	}
	if v.TotalInvocations > 0 {
		parts = append(parts, fmt.Sprintf("%d runs", v.TotalInvocations))
	}
	if len(parts) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", strings.Join(parts, ", "))
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
