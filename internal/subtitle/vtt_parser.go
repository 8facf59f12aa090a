package subtitle

import (
	"regexp"
	"strings"
)

var (
	vttTimingRegex = regexp.MustCompile(
		`^(\d{1,2}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{1,2}):(\d{2}):(\d{2})\.(\d{3})`,
	)
	vttShortTimingRegex = regexp.MustCompile(
		`^(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2})\.(\d{3})`,
	)
)

// ParseVTT reads WebVTT text into cues. The header, NOTE, STYLE and REGION
// blocks are ignored; cue identifiers and cue settings are dropped. Cue
// blocks without a usable timing line are skipped and counted; a timing line
// with no text yields a cue with empty text.
func ParseVTT(text string) ParseResult {
	result := ParseResult{Cues: []Cue{}}

	for i, block := range splitBlocks(text) {
		first := strings.TrimSpace(block[0])
		if i == 0 && strings.HasPrefix(first, "WEBVTT") {
			continue
		}
		if strings.HasPrefix(first, "NOTE") ||
			strings.HasPrefix(first, "STYLE") ||
			strings.HasPrefix(first, "REGION") {
			continue
		}

		cue, ok := parseVTTBlock(block)
		if !ok {
			result.Skipped++
			continue
		}
		result.Cues = append(result.Cues, cue)
	}

	return result
}

func parseVTTBlock(lines []string) (Cue, bool) {
	// optional cue identifier before the timing line
	for idx := 0; idx < len(lines) && idx < 2; idx++ {
		start, end, ok := parseVTTTimingLine(strings.TrimSpace(lines[idx]))
		if !ok {
			continue
		}
		text := strings.TrimSpace(strings.Join(lines[idx+1:], "\n"))
		return Cue{Start: start, End: end, Text: text}, true
	}
	return Cue{}, false
}

func parseVTTTimingLine(line string) (float64, float64, bool) {
	if start, end, ok := parseTimingLine(vttTimingRegex, line); ok {
		return start, end, true
	}

	m := vttShortTimingRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	start, err := timestampFromParts("0", m[1], m[2], m[3])
	if err != nil {
		return 0, 0, false
	}
	end, err := timestampFromParts("0", m[4], m[5], m[6])
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}
