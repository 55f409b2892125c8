package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragify/internal/config"
	"ragify/internal/logger"
)

var (
	flagConfig  string
	flagDB      string
	flagVerbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ragify",
	Short: "Ask questions about API documentation using retrieval-augmented generation",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; the environment may already be set.
		_ = godotenv.Load()
		logger.SetVerbose(flagVerbose)

		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ./ragify.yaml or ~/.config/ragify/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "index database path (default .ragify/index.db)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}
