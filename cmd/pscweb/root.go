package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OptimisticPessimist/pscweb3/internal/config"
	"github.com/OptimisticPessimist/pscweb3/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var envFile string

var rootCmd = &cobra.Command{
	Use:           "pscweb",
	Short:         "Rehearsal scheduling for theater productions",
	Long:          "pscweb collects cast availability for candidate rehearsal slots\nand reports which scenes each slot can rehearse.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		level, err := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
		if err != nil {
			return fmt.Errorf("LOG_LEVEL: %w", err)
		}
		logging.Init(level, os.Getenv("LOG_FORMAT"))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(consumeCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.Version = version
}
