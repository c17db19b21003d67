package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	env        string
)

var rootCmd = &cobra.Command{
	Use:   "recapd",
	Short: "Local content index and tagging service for screen/audio capture",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./recapd.yaml", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&env, "env", envOrDefault(), "Environment: local, dev or prod")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func envOrDefault() string {
	if e := os.Getenv("ENV"); e != "" {
		return e
	}
	return "local"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
