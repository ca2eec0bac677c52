package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Markdown renders markdown content for terminal display.
// Uses a pooled renderer for better performance and thread safety.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// MarkdownOrPlain renders content, returning it unchanged if rendering fails.
// The blank margin lines glamour adds above and below are dropped.
func MarkdownOrPlain(content string, opts Options) string {
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return trimBlankLines(out)
}

// trimBlankLines drops leading and trailing lines that hold only whitespace
// once escape sequences are removed.
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	blank := func(l string) bool { return strings.TrimSpace(ansi.Strip(l)) == "" }

	start, end := 0, len(lines)
	for start < end && blank(lines[start]) {
		start++
	}
	for end > start && blank(lines[end-1]) {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
