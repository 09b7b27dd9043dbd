package output

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const defaultWrap = 80

// markdownStyle is the glamour style used for descriptions; DisableColor
// switches it to the plain "notty" style.
var markdownStyle = "dark"

// Markdown renders a description as terminal markdown wrapped at width.
// Rendering failures fall back to the raw text.
func Markdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(markdownStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
