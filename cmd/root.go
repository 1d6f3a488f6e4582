package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskflow/internal/config"
	"taskflow/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "taskflow",
	Short: "Task tracking server",
	Long: `taskflow tracks tasks through a review workflow. Visibility and
assignment follow the manager hierarchy; milestones complete their task
when the last one is done.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default $TASKFLOW_CONFIG or "+config.DefaultPath+")")
}

// GetRootCmd returns the root command for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func loadRuntime(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.Log), nil
}
