package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title Dunzo API
// @version 1.0.0
// @description Gateway in front of the Dunzo backend: sessions, calendar reconciliation and exports
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var envFile string

var rootCmd = &cobra.Command{
	Use:   "api-gateway",
	Short: "Dunzo API gateway",
	Long: `api-gateway serves the Dunzo web client. It holds sessions, keeps each user's
calendar reconciled against the backend and renders calendar exports.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before the environment (default .env)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(convertCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
