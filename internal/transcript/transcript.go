// Package transcript renders a bilingual cue list as a readable document.
package transcript

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/vidgo/vidsub/internal/subtitle"
	"github.com/yuin/goldmark"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"#", `\#`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
)

// Markdown lists every cue with its start time, the primary text and the
// translation in italics. Editing flags are not part of the output.
func Markdown(title string, cues []subtitle.BilingualCue) string {
	var sb strings.Builder

	if title != "" {
		sb.WriteString("# " + escapeMarkdown(title) + "\n\n")
	}

	for _, cue := range cues {
		sb.WriteString(fmt.Sprintf("**%s**  \n", subtitle.FormatVTTTimestamp(cue.Start)))
		writeLines(&sb, cue.Text, "", "")
		if strings.TrimSpace(cue.Translation) != "" {
			writeLines(&sb, cue.Translation, "*", "*")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// HTML renders Markdown into a standalone HTML page.
func HTML(title string, cues []subtitle.BilingualCue) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(title, cues)), &buf); err != nil {
		return "", fmt.Errorf("failed to render transcript: %w", err)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: sans-serif; font-size: 14px; line-height: 1.5;">
%s
</body></html>
`, html.EscapeString(title), buf.String()), nil
}

// one markdown hard-broken line per text line
func writeLines(sb *strings.Builder, text, open, close string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sb.WriteString(open + escapeMarkdown(line) + close + "  \n")
	}
}

func escapeMarkdown(s string) string {
	s = markdownEscaper.Replace(s)

	// leading list markers would turn a line into a list item
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return `\` + s
	}
	if i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }); i > 0 && (s[i] == '.' || s[i] == ')') {
		return s[:i] + `\` + s[i:]
	}
	return s
}
