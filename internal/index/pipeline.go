package index

import (
	"context"
	"fmt"

	"ragify/internal/fetcher"
	"ragify/internal/logger"
)

// Walker fetches a list of URLs and streams the results in order.
type Walker interface {
	Walk(ctx context.Context, urls []string) <-chan fetcher.RawDocument
}

// ProgressFunc is called after each URL has been fetched and ingested.
type ProgressFunc func(done, total int, doc fetcher.RawDocument)

// LoadStats reports the outcome of a LoadAll run.
type LoadStats struct {
	URLsTotal       int
	PagesFetched    int
	RecordsInserted int
	Failures        []fetcher.Failure
}

// LoadAll fetches every URL and ingests the pages as they arrive. Fetch
// failures are collected in the stats and never stop the run; an
// embedding or storage error does, and is returned with the partial stats.
func (idx *Indexer) LoadAll(ctx context.Context, w Walker, urls []string, onProgress ProgressFunc) (*LoadStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stats := &LoadStats{URLsTotal: len(urls)}

	// Stage 1: fetch (sequential, rate limited)
	docCh := w.Walk(ctx, urls)

	// Stage 2: chunk + embed + store, one document at a time
	done := 0
	for doc := range docCh {
		done++
		switch d := doc.(type) {
		case fetcher.Page:
			stats.PagesFetched++
			n, err := idx.Ingest(ctx, []fetcher.RawDocument{d})
			stats.RecordsInserted += n
			if err != nil {
				return stats, fmt.Errorf("ingest %s: %w", d.URL, err)
			}
			logger.Info("Indexed %s (%d chunks)", d.URL, n)
		case fetcher.Failure:
			stats.Failures = append(stats.Failures, d)
		}
		if onProgress != nil {
			onProgress(done, stats.URLsTotal, doc)
		}
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}
