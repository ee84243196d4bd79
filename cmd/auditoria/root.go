package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/auditoria/auditoria/pkg/config"
)

func newRootCommand() *cobra.Command {
	var envFiles []string

	rootCmd := &cobra.Command{
		Use:           "auditoria",
		Short:         "AuditorIA notification pipeline and task-records search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFiles(envFiles)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Environment files loaded over the process environment")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newTasksCommand())
	rootCmd.AddCommand(newNotifyCommand())
	rootCmd.AddCommand(newTokenCommand())

	return rootCmd
}

// loadEnvFiles loads explicitly named files over the process environment.
// Without any, config.Load still picks up .env on its own.
func loadEnvFiles(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	for i := range paths {
		paths[i] = strings.TrimSpace(paths[i])
	}
	return config.LoadEnv(paths...)
}
