package subtitle

import (
	"strings"
	"unicode/utf8"
)

// Reflower splits over-long cues and wraps cue text onto at most two lines.
type Reflower struct {
	MaxCharsPerLine int
	MaxLinesPerCue  int
	MaxDuration     float64 // seconds
}

func NewReflower() *Reflower {
	return &Reflower{
		MaxCharsPerLine: 42, // Standard subtitle line length
		MaxLinesPerCue:  2,  // Most players support 2 lines
		MaxDuration:     7,
	}
}

// Reflow returns a new track; cues with blank text are dropped.
func (r *Reflower) Reflow(cues []Cue) []Cue {
	out := make([]Cue, 0, len(cues))

	for _, cue := range cues {
		text := strings.Join(strings.Fields(cue.Text), " ")
		if text == "" {
			continue
		}

		if r.needsSplit(text, cue.End-cue.Start) {
			out = append(out, r.splitCue(cue, text)...)
			continue
		}
		out = append(out, Cue{Start: cue.Start, End: cue.End, Text: r.formatText(text)})
	}

	return out
}

func (r *Reflower) needsSplit(text string, duration float64) bool {
	if utf8.RuneCountInString(text) > r.MaxCharsPerLine*r.MaxLinesPerCue {
		return true
	}
	return r.MaxDuration > 0 && duration > r.MaxDuration
}

// splits one cue into evenly timed parts, distributing words
func (r *Reflower) splitCue(cue Cue, text string) []Cue {
	words := strings.Fields(text)
	total := cue.End - cue.Start

	maxChars := r.MaxCharsPerLine * r.MaxLinesPerCue
	numSplits := (utf8.RuneCountInString(text) + maxChars - 1) / maxChars
	if numSplits < 1 {
		numSplits = 1
	}
	if r.MaxDuration > 0 {
		if durationSplits := int(total/r.MaxDuration) + 1; durationSplits > numSplits {
			numSplits = durationSplits
		}
	}
	if numSplits > len(words) {
		numSplits = len(words)
	}

	wordsPerSplit := (len(words) + numSplits - 1) / numSplits
	step := total / float64(numSplits)

	var parts []Cue
	start := cue.Start
	for i := 0; i < numSplits && len(words) > 0; i++ {
		n := wordsPerSplit
		if n > len(words) {
			n = len(words)
		}
		partText := strings.Join(words[:n], " ")
		words = words[n:]

		end := start + step
		// last part ends at the original end time
		if len(words) == 0 {
			end = cue.End
		}

		parts = append(parts, Cue{Start: start, End: end, Text: r.formatText(partText)})
		start = end
	}

	return parts
}

// wraps text onto two lines at the word break closest to the middle
func (r *Reflower) formatText(text string) string {
	runeCount := utf8.RuneCountInString(text)
	if runeCount <= r.MaxCharsPerLine {
		return text
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	middle := runeCount / 2
	bestSplit := 0
	bestDiff := runeCount

	currentLen := 0
	for i, word := range words[:len(words)-1] {
		currentLen += utf8.RuneCountInString(word)
		if i > 0 {
			currentLen++ // space
		}

		diff := abs(currentLen - middle)
		if diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	if bestSplit > 0 && bestSplit < len(words) {
		return strings.Join(words[:bestSplit], " ") + "\n" + strings.Join(words[bestSplit:], " ")
	}
	return text
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
