package prompt

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts formatted documentation to an HTML preview.
func RenderHTML(markdown string) (string, error) {
	var buffer bytes.Buffer
	if convertErr := markdownRenderer.Convert([]byte(markdown), &buffer); convertErr != nil {
		return "", fmt.Errorf("render markdown: %w", convertErr)
	}
	return buffer.String(), nil
}
