package subtitle

import (
	"fmt"
	"strings"
)

// selects which text a WebVTT cue carries
type Mode string

const (
	// text of the first track only
	ModePrimary Mode = "primary"
	// text of the first track only; callers pass the translated track first
	ModeTranslation Mode = "translation"
	// first track text, newline, second track text at the same index
	ModeBoth Mode = "both"
)

// ParseMode validates a mode name. Empty means primary.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePrimary:
		return ModePrimary, nil
	case ModeTranslation:
		return ModeTranslation, nil
	case ModeBoth:
		return ModeBoth, nil
	default:
		return "", fmt.Errorf("unsupported mode %q: use primary, translation, or both", s)
	}
}

// BuildVTT renders a WebVTT document from the first track, pulling the
// second track's text by index in ModeBoth. Cues of the second track past
// the first track's length are ignored.
func BuildVTT(mode Mode, tracks ...[]Cue) string {
	var first, second []Cue
	if len(tracks) > 0 {
		first = tracks[0]
	}
	if len(tracks) > 1 {
		second = tracks[1]
	}

	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")

	for i, cue := range first {
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			FormatVTTTimestamp(cue.Start),
			FormatVTTTimestamp(cue.End)))
		sb.WriteString(textBlock(mode, i, cue, second))
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// Merge applies the BuildVTT text rule and returns the result as cues with
// the first track's timing, for writers of other formats.
func Merge(mode Mode, first, second []Cue) []Cue {
	out := make([]Cue, len(first))
	for i, cue := range first {
		out[i] = Cue{Start: cue.Start, End: cue.End, Text: textBlock(mode, i, cue, second)}
	}
	return out
}

func textBlock(mode Mode, i int, cue Cue, second []Cue) string {
	if mode != ModeBoth {
		return cue.Text
	}
	translation := ""
	if i < len(second) {
		translation = second[i].Text
	}
	return cue.Text + "\n" + translation
}
