// Package main provides the entry point for the form autofill agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autofill_agent",
	Short: "Job application form autofill agent",
	Long:  "Autofill agent opens a job application page in a browser, analyzes the form with an LLM, fills it from a candidate profile, and lets the user verify and retry before submitting.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
