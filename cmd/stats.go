package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index size and storage backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		idx, err := openIndex(ctx, cfg)
		if err != nil {
			return err
		}
		defer idx.Close()

		s := idx.Stats(ctx)
		fmt.Printf("Records:   %d\n", s.TotalDocuments)
		fmt.Printf("Backend:   %s\n", s.Backend)
		fmt.Printf("Model:     %s\n", s.Model)
		if cfg.Store.Path != "" {
			fmt.Printf("Database:  %s\n", cfg.Store.Path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
