// Package cmd provides the finbot CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finbot/internal/cli"
	"finbot/internal/config"
	"finbot/internal/log"
)

var (
	envFile  string
	logLevel string

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "finbot",
	Short: "Personal finance chat bot",
	Long: `finbot records income and expenses from short messages such as
"500 lunch" or "+50000 salary", classifies expenses into categories and
answers with lists, balances and monthly statistics.

Example:
  finbot serve
  finbot console --user 42`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			cli.LoadEnvFile(envFile)
		} else {
			cli.LoadEnvFile()
		}
		if logLevel != "" {
			if err := os.Setenv("LOG_LEVEL", logLevel); err != nil {
				return err
			}
		}

		var err error
		cfg, err = cli.LoadAndValidateConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return err
		}
		logger = cli.SetupLogger(cfg.LogLevel, log.ComponentApp)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default is .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
}
