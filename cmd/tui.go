package cmd

import (
	"context"

	"ragify/internal/rag"
	"ragify/internal/tui"
)

func runTUI(ctx context.Context) error {
	idx, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer idx.Close()

	urls, err := cfg.Corpus.URLs()
	if err != nil {
		return err
	}

	return tui.Run(tui.Config{
		Index:    idx,
		Composer: rag.NewComposer(idx, newChatClient(cfg)),
		Walker:   newFetcher(cfg),
		URLs:     urls,
	})
}
