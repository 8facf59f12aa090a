package translate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// sends one prompt to a language model and returns its raw text reply
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// one API request worth of items plus the source lines around them
type Batch struct {
	Items  []TranslationItem
	Before []string
	After  []string
}

// Engine turns items into prompts, runs them through a Completer and
// parses the replies. It implements ConcurrentTranslator.
type Engine struct {
	provider  Provider
	completer Completer
	options   Options
}

func NewEngine(provider Provider, c Completer, opts Options) *Engine {
	return &Engine{provider: provider, completer: c, options: opts}
}

func (e *Engine) Provider() Provider {
	return e.provider
}

func (e *Engine) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	return e.TranslateWithConcurrency(ctx, items, 1)
}

// Items are split into batches of BatchSize (default 50). Each batch becomes
// one API request. Workers (up to concurrency) pull batches from a shared queue.
func (e *Engine) TranslateWithConcurrency(
	ctx context.Context,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}
	if concurrency <= 0 {
		concurrency = 3
	}

	batches := SplitBatches(items, e.options.batchSize(), e.options.contextSize())
	if len(batches) == 1 {
		return e.translateBatch(ctx, batches[0])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		Index   int
		Results []TranslationResult
		Error   error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(batches); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batchIdx := range workChan {
				if ctx.Err() != nil {
					return
				}
				results, err := e.translateBatch(ctx, batches[batchIdx])
				if err != nil {
					cancel()
				}
				resultChan <- batchResult{Index: batchIdx, Results: results, Error: err}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var all []TranslationResult
	var firstErr error
	for result := range resultChan {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("batch %d failed: %w", result.Index, result.Error)
			}
			continue
		}
		all = append(all, result.Results...)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil && len(all) < len(items) {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Index < all[j].Index
	})
	return all, nil
}

func (e *Engine) translateBatch(ctx context.Context, batch Batch) ([]TranslationResult, error) {
	reply, err := e.completer.Complete(ctx, BuildPrompt(e.options, batch))
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	return parseReply(reply, batch.Items)
}

// SplitBatches cuts items into batches of size n, attaching up to
// contextSize source lines on each side of every batch.
func SplitBatches(items []TranslationItem, n, contextSize int) []Batch {
	if n <= 0 {
		n = DefaultBatchSize
	}

	var batches []Batch
	for start := 0; start < len(items); start += n {
		end := start + n
		if end > len(items) {
			end = len(items)
		}

		batch := Batch{Items: items[start:end]}
		for i := max(0, start-contextSize); i < start; i++ {
			batch.Before = append(batch.Before, items[i].Text)
		}
		for i := end; i < len(items) && i < end+contextSize; i++ {
			batch.After = append(batch.After, items[i].Text)
		}
		batches = append(batches, batch)
	}
	return batches
}
