package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var srtTimingRegex = regexp.MustCompile(
	`^(\d{1,2}):(\d{2}):(\d{2})[.,](\d{3})\s*-->\s*(\d{1,2}):(\d{2}):(\d{2})[.,](\d{3})`,
)

// ParseSRT converts SubRip text into cues in source order. It never fails:
// blocks without a numeric index line or a timing line are skipped and
// counted. A block with no text lines is kept as a cue with empty text so
// index alignment with a second track survives a round trip. No ordering or
// end > start checks are applied.
func ParseSRT(text string) ParseResult {
	result := ParseResult{Cues: []Cue{}}

	for _, block := range splitBlocks(text) {
		cue, ok := parseSRTBlock(block)
		if !ok {
			result.Skipped++
			continue
		}
		result.Cues = append(result.Cues, cue)
	}

	return result
}

// Parse is ParseSRT without the diagnostics.
func Parse(text string) []Cue {
	return ParseSRT(text).Cues
}

func parseSRTBlock(lines []string) (Cue, bool) {
	if len(lines) < 2 {
		return Cue{}, false
	}

	if _, err := strconv.ParseUint(strings.TrimSpace(lines[0]), 10, 64); err != nil {
		return Cue{}, false
	}

	start, end, ok := parseTimingLine(srtTimingRegex, strings.TrimSpace(lines[1]))
	if !ok {
		return Cue{}, false
	}

	text := strings.TrimSpace(strings.Join(lines[2:], "\n"))
	return Cue{Start: start, End: end, Text: text}, true
}

func parseTimingLine(re *regexp.Regexp, line string) (float64, float64, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	start, err := timestampFromParts(m[1], m[2], m[3], m[4])
	if err != nil {
		return 0, 0, false
	}
	end, err := timestampFromParts(m[5], m[6], m[7], m[8])
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// splits text into runs of non-blank lines; handles CRLF and a leading BOM
func splitBlocks(text string) [][]string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var blocks [][]string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// SerializeSRT renders cues as SubRip text with 1-based sequence numbers.
// Text containing a blank line will be split into two cues when parsed back.
func SerializeSRT(cues []Cue) string {
	var sb strings.Builder
	for i, cue := range cues {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			FormatSRTTimestamp(cue.Start),
			FormatSRTTimestamp(cue.End)))

		// text
		sb.WriteString(cue.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
