package subtitle

// represents single timed subtitle entry, times are seconds from start
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// cue paired with its translation by position; the editing flags are
// presentation state and never leave the process
type BilingualCue struct {
	Cue
	Translation        string `json:"translation,omitempty"`
	Editing            bool   `json:"-"`
	TranslationEditing bool   `json:"-"`
}

// outcome of a best-effort parse; Skipped counts blocks that did not match
type ParseResult struct {
	Cues    []Cue
	Skipped int
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatASS  Format = "ass"
	FormatSSA  Format = "ssa"
	FormatTTML Format = "ttml"
	FormatSTL  Format = "stl"
)

// interface for writing cue tracks to files
type Writer interface {
	Write(cues []Cue, path string) error
}

// Pair aligns a translation track to a primary track by index. Translation
// cues past the end of the primary are dropped, missing ones become "".
func Pair(primary, translation []Cue) []BilingualCue {
	out := make([]BilingualCue, len(primary))
	for i, c := range primary {
		out[i] = BilingualCue{Cue: c}
		if i < len(translation) {
			out[i].Translation = translation[i].Text
		}
	}
	return out
}

// Split is the inverse of Pair: the translation track reuses primary timing.
func Split(cues []BilingualCue) (primary, translation []Cue) {
	primary = make([]Cue, len(cues))
	translation = make([]Cue, len(cues))
	for i, c := range cues {
		primary[i] = c.Cue
		translation[i] = Cue{Start: c.Start, End: c.End, Text: c.Translation}
	}
	return primary, translation
}

// Clone returns a copy that shares no backing array with cues.
func Clone(cues []Cue) []Cue {
	if cues == nil {
		return []Cue{}
	}
	out := make([]Cue, len(cues))
	copy(out, cues)
	return out
}
