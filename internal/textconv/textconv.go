// Package textconv converts the remote store's rich document bodies to
// Markdown. The engine only uses it as a fallback when the server-side
// export endpoint fails.
package textconv

import (
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Converter turns HTML document bodies into Markdown.
type Converter struct {
	conv *md.Converter
}

// New creates a Converter with CommonMark rules enabled.
func New() *Converter {
	return &Converter{
		conv: md.NewConverter("", true, nil),
	}
}

// Markdown converts an HTML fragment to Markdown.
func (c *Converter) Markdown(html string) (string, error) {
	out, err := c.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}

	return out, nil
}
