package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"
)

// parsed subtitle file
type Document struct {
	Format  Format
	Cues    []Cue
	Skipped int
}

// Open reads a subtitle file into cues. SRT and WebVTT use the native
// best-effort parsers; ASS/SSA, TTML and EBU STL are read with go-astisub.
func Open(path string) (*Document, error) {
	format, ok := formatForExtension(path)
	if !ok {
		return nil, fmt.Errorf(
			"unsupported subtitle format: %s",
			strings.ToLower(filepath.Ext(path)),
		)
	}

	switch format {
	case FormatSRT, FormatVTT:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s file: %w", format, err)
		}
		return Read(string(data), format)
	default:
		subs, err := astisub.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s file: %w", format, err)
		}
		return &Document{Format: format, Cues: fromAstisub(subs)}, nil
	}
}

// Read parses in-memory SRT or WebVTT text.
func Read(text string, format Format) (*Document, error) {
	var result ParseResult
	switch format {
	case FormatSRT:
		result = ParseSRT(text)
	case FormatVTT:
		result = ParseVTT(text)
	default:
		return nil, fmt.Errorf("unsupported text format: %s", format)
	}
	return &Document{Format: format, Cues: result.Cues, Skipped: result.Skipped}, nil
}

// one Cue per astisub item, one text line per astisub line
func fromAstisub(subs *astisub.Subtitles) []Cue {
	cues := make([]Cue, 0, len(subs.Items))
	for _, item := range subs.Items {
		lines := make([]string, 0, len(item.Lines))
		for _, line := range item.Lines {
			if text := strings.TrimSpace(line.String()); text != "" {
				lines = append(lines, text)
			}
		}
		if len(lines) == 0 {
			continue
		}
		cues = append(cues, Cue{
			Start: item.StartAt.Seconds(),
			End:   item.EndAt.Seconds(),
			Text:  strings.Join(lines, "\n"),
		})
	}
	return cues
}

func formatForExtension(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, true
	case ".vtt":
		return FormatVTT, true
	case ".ass":
		return FormatASS, true
	case ".ssa":
		return FormatSSA, true
	case ".ttml":
		return FormatTTML, true
	case ".stl":
		return FormatSTL, true
	default:
		return "", false
	}
}
