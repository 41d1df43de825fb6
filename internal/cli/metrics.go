package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/store"
)

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "record and inspect per-version performance metrics",
	}
	cmd.AddCommand(newMetricsRecordCmd(), newMetricsShowCmd())
	return cmd
}

func newMetricsRecordCmd() *cobra.Command {
	var tokens int64
	var latency, cost float64
	var failed bool

	cmd := &cobra.Command{
		Use:   "record NAME VERSION",
		Short: "fold one observed invocation into a version's rolling averages",
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

			sample := store.MetricsSample{Success: !failed}
			if cmd.Flags().Changed("tokens") {
				sample.TokenUsage = &tokens
			}
			if cmd.Flags().Changed("latency") {
				sample.LatencyMs = &latency
			}
			if cmd.Flags().Changed("cost") {
				sample.Cost = &cost
			}

			if err := p.db.RecordMetrics(ctx, v, sample); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded sample for %s v%d (%d invocations total)\n",
				prompt.Name, number, v.TotalInvocations)
			return nil
		},
	}
	cmd.Flags().Int64Var(&tokens, "tokens", 0, "tokens used by this invocation")
	cmd.Flags().Float64Var(&latency, "latency", 0, "latency in milliseconds")
	cmd.Flags().Float64Var(&cost, "cost", 0, "cost per 1k tokens")
	cmd.Flags().BoolVar(&failed, "failed", false, "mark the invocation as unsuccessful")
	return cmd
}

func newMetricsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME VERSION",
		Short: "print a version's accumulated metrics",
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

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s v%d\n", prompt.Name, v.VersionNumber)
			fmt.Fprintf(out, "invocations: %d\n", v.TotalInvocations)
			if v.SuccessRate != nil {
				fmt.Fprintf(out, "success:     %.1f%%\n", *v.SuccessRate*100)
			}
			if v.AvgLatencyMs != nil {
				fmt.Fprintf(out, "latency:     %.1fms avg\n", *v.AvgLatencyMs)
			}
			if v.AvgTokenUsage != nil {
				fmt.Fprintf(out, "tokens:      %d avg\n", *v.AvgTokenUsage)
			}
			if v.AvgCostPer1K != nil {
				fmt.Fprintf(out, "cost:        $%.4f per 1k avg\n", *v.AvgCostPer1K)
			}
			return nil
		},
	}
}
