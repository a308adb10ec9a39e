package cmd

import (
	"fmt"
	"os"

	"randomradio/config"
	"randomradio/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "randomradio",
	Short: "randomradio is a personal radio station with an AI DJ.",
	Run: func(cmd *cobra.Command, args []string) {
		runStation()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the environment configuration and initializes logging.
func loadConfig() *config.Config {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	return cfg
}
