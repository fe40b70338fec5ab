// Package main is the entry point for the cardscore CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cardscore",
	Short: "A2A Agent Card validation and scoring CLI",
	Long: `Validates A2A Agent Cards, verifies their detached JWS signatures,
probes their declared transports, and scores compliance, trust, and availability.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
