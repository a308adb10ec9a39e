package cmd

import (
	"fmt"
	"log"

	"randomradio/core/auth"

	"github.com/spf13/cobra"
)

var hashpwCmd = &cobra.Command{
	Use:   "hashpw <password>",
	Short: "Hash a control panel password",
	Long:  `Prints a bcrypt hash of the given password, suitable for ADMIN_PASSWORD so the plain password does not sit in the environment.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
	},
}

func init() {
	rootCmd.AddCommand(hashpwCmd)
}
