package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/hooks"
)

func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "manage lifecycle hook scripts",
		Long: `Manage lifecycle hook scripts.

Hooks are executables under .pit/hooks/ named after their trigger:
pre-commit, post-commit, pre-checkout, post-checkout, pre-merge,
post-merge. A failing pre-* hook aborts the operation.`,
	}
	cmd.AddCommand(
		newHooksInstallCmd(),
		newHooksListCmd(),
		newHooksUninstallCmd(),
		newHooksRunCmd(),
	)
	return cmd
}

func parseHookType(arg string) (hooks.Type, error) {
	for _, t := range hooks.All() {
		if string(t) == arg {
			return t, nil
		}
	}
	names := make([]string, 0, len(hooks.All()))
	for _, t := range hooks.All() {
		names = append(names, string(t))
	}
	return "", fmt.Errorf("unknown hook type %q (expected one of %s)", arg, strings.Join(names, ", "))
}

func newHooksInstallCmd() *cobra.Command {
	var scriptFile string
	var sample bool

	cmd := &cobra.Command{
		Use:   "install TYPE",
		Short: "install a hook script from a file or the built-in sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			t, err := parseHookType(args[0])
			if err != nil {
				return err
			}

			mgr := hooks.NewManager(p.root)
			var script *hooks.Script
			switch {
			case scriptFile != "":
				script, err = mgr.InstallFromFile(t, scriptFile)
			case sample:
				script, err = mgr.Install(t, hooks.SampleScript(t), true)
			default:
				return fmt.Errorf("provide a script with --file or use --sample")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed %s hook at %s\n", t, script.Path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&scriptFile, "file", "f", "", "script file to install")
	cmd.Flags().BoolVar(&sample, "sample", false, "install the built-in sample script")
	return cmd
}

func newHooksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "show which hooks are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			installed, err := hooks.NewManager(p.root).List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "HOOK\tSTATUS")
			for _, t := range hooks.All() {
				status := "not installed"
				if script, ok := installed[t]; ok {
					status = "installed"
					if !script.Executable {
						status = "installed (not executable)"
					}
				}
				fmt.Fprintf(w, "%s\t%s\n", t, status)
			}
			return w.Flush()
		},
	}
}

func newHooksUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall TYPE",
		Short: "remove an installed hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			t, err := parseHookType(args[0])
			if err != nil {
				return err
			}
			removed, err := hooks.NewManager(p.root).Uninstall(t)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "no %s hook installed\n", t)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uninstalled %s hook\n", t)
			return nil
		},
	}
}

func newHooksRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run TYPE",
		Short: "run a hook manually",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			t, err := parseHookType(args[0])
			if err != nil {
				return err
			}
			result := hooks.NewManager(p.root).Run(cmd.Context(), t, nil)

			out := cmd.OutOrStdout()
			if result.Stdout != "" {
				fmt.Fprint(out, result.Stdout)
			}
			if result.Stderr != "" {
				fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
			}
			if !result.Success {
				return fmt.Errorf("%s hook failed: %s", t, result.Message)
			}
			fmt.Fprintf(out, "%s\n", result.Message)
			return nil
		},
	}
}
