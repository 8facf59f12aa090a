package translate

import (
	"context"
	"fmt"

	"github.com/vidgo/vidsub/internal/subtitle"
)

// FillTrack translates every cue of primary and returns a translation track
// of the same length and timing, aligned by index. Cues the model did not
// return keep empty text.
func FillTrack(
	ctx context.Context,
	tr Translator,
	primary []subtitle.Cue,
	concurrency int,
) ([]subtitle.Cue, error) {
	out := make([]subtitle.Cue, len(primary))
	items := make([]TranslationItem, 0, len(primary))
	for i, cue := range primary {
		out[i] = subtitle.Cue{Start: cue.Start, End: cue.End}
		if cue.Text != "" {
			items = append(items, TranslationItem{Index: i, Text: cue.Text})
		}
	}
	if len(items) == 0 {
		return out, nil
	}

	var (
		results []TranslationResult
		err     error
	)
	if ct, ok := tr.(ConcurrentTranslator); ok && concurrency > 1 {
		results, err = ct.TranslateWithConcurrency(ctx, items, concurrency)
	} else {
		results, err = tr.Translate(ctx, items)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to translate track: %w", err)
	}

	for _, r := range results {
		if r.Index >= 0 && r.Index < len(out) {
			out[r.Index].Text = r.Text
		}
	}
	return out, nil
}

// Missing counts cues of a filled track that came back without text while
// their source had some.
func Missing(primary, translation []subtitle.Cue) int {
	n := 0
	for i, cue := range primary {
		if cue.Text == "" {
			continue
		}
		if i >= len(translation) || translation[i].Text == "" {
			n++
		}
	}
	return n
}
