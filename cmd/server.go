package cmd

import (
	"randomradio/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the radio station",
	Long:  `Scans the album library, starts the playback loop and serves the control panel API.`,
	Run: func(cmd *cobra.Command, args []string) {
		runStation()
	},
}

func runStation() {
	cfg := loadConfig()
	server.Start(cfg)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
