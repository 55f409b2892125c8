package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ragify/internal/fetcher"
)

var (
	flagProviders []string
	flagReset     bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Fetch the documentation corpus and add it to the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		urls, err := cfg.Corpus.URLs(flagProviders...)
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return fmt.Errorf("corpus has no URLs to load")
		}

		idx, err := openIndex(ctx, cfg)
		if err != nil {
			return err
		}
		defer idx.Close()

		if flagReset {
			if err := idx.Reset(ctx); err != nil {
				return err
			}
			fmt.Println("Index cleared.")
		}

		fmt.Printf("Loading %d pages...\n", len(urls))
		start := time.Now()

		stats, err := idx.LoadAll(ctx, newFetcher(cfg), urls, func(done, total int, doc fetcher.RawDocument) {
			status := "ok"
			if f, failed := doc.(fetcher.Failure); failed {
				status = "failed: " + f.Message
			}
			fmt.Printf("  [%d/%d] %s (%s)\n", done, total, doc.Location(), status)
		})
		elapsed := time.Since(start)

		if stats != nil {
			fmt.Printf("\nDone in %s\n", elapsed.Round(time.Millisecond))
			fmt.Printf("  Pages:   %d fetched, %d failed\n", stats.PagesFetched, len(stats.Failures))
			fmt.Printf("  Chunks:  %d added\n", stats.RecordsInserted)
			s := idx.Stats(ctx)
			fmt.Printf("  Index:   %d records (%s)\n", s.TotalDocuments, s.Backend)
		}

		return err
	},
}

func init() {
	loadCmd.Flags().StringSliceVarP(&flagProviders, "provider", "p", nil, "only load these providers (default all)")
	loadCmd.Flags().BoolVar(&flagReset, "reset", false, "clear the index before loading")
	rootCmd.AddCommand(loadCmd)
}
