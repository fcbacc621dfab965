package discord

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxDiscordMessageLen = 2000
	SafeChunkLen         = 1900
	MaxEmbedFieldLen     = 1024
	MaxEmbedFields       = 25
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"|", `\|`,
	">", `\>`,
)

// EscapeMarkdown keeps user-supplied names from being rendered as formatting.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// SplitLines packs lines into chunks no longer than limit, breaking only between lines.
// A single line longer than limit is truncated.
func SplitLines(lines []string, limit int) []string {
	if limit <= 0 {
		limit = SafeChunkLen
	}

	var (
		chunks  []string
		current strings.Builder
	)
	for _, line := range lines {
		line = Truncate(line, limit)
		if current.Len() > 0 && current.Len()+1+len(line) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// Truncate shortens value to at most limit bytes without splitting a rune, marking the
// cut with an ellipsis.
func Truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	const ellipsis = "…"
	cut := limit - len(ellipsis)
	if cut <= 0 {
		return ""
	}
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut] + ellipsis
}
