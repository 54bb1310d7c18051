package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"luxury-leads-backend/internal/config"
	"luxury-leads-backend/internal/logger"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "leads-server",
	Short:         "Luxury Leads chat widget backend",
	Long:          "Serves the embeddable chat widget, answers visitor messages on behalf of agencies and captures leads.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
		return nil
	},
}

func main() {
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newAgencyCommand())
	rootCmd.AddCommand(newLeadsCommand())
	rootCmd.AddCommand(newChatCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
