package fetcher

import "context"

// Walk fetches urls one at a time, in order, waiting the configured delay
// between requests. Results are sent on the returned channel, which is
// closed when every URL has been fetched or ctx is cancelled.
func (f *Fetcher) Walk(ctx context.Context, urls []string) <-chan RawDocument {
	docs := make(chan RawDocument, 4)

	go func() {
		defer close(docs)

		for _, u := range urls {
			if err := f.limiter.Wait(ctx); err != nil {
				return
			}
			doc := f.Fetch(ctx, u)
			select {
			case docs <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()

	return docs
}
