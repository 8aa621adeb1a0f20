// Package cmd implements the dashboard command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Website analysis dashboard server",
	Long:  "Serves the website analysis dashboard: URL and article analysis, AI-assisted rewrites, localized rendering and PDF report export.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadEnv)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is environment only)")
}

func loadEnv() {
	// .env.development wins for local runs, then a plain .env.
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
		}
	}
}
