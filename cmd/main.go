package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"vibeauth/internal/config"
)

func init() {
	// Load environment variables from .env file.
	if err := config.LoadDotEnv(); err != nil {
		log.Println("Warning: .env file not found")
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newOTPCmd())
}

var rootCmd = &cobra.Command{
	Use:          "vibeauth",
	Short:        "Password and authenticator-app login service",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
