package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/promptpit/pit/internal/config"
	"github.com/promptpit/pit/internal/store"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "initialize a pit project in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			if config.IsInitialized(cwd) {
				return fmt.Errorf("already a pit project: %s", cwd)
			}

			stateDir, err := config.StateDir(cwd)
			if err != nil {
				return err
			}

			db, err := store.Open(cmd.Context(), filepath.Join(stateDir, store.DBName))
			if err != nil {
				return err
			}
			defer db.Close()

			configPath := filepath.Join(cwd, config.ConfigFile)
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				if err := os.WriteFile(configPath, []byte(config.DefaultTemplate), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", config.ConfigFile, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty pit project in %s\n", stateDir)
			return nil
		},
	}
}
