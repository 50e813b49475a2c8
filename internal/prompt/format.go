// Package prompt renders fetched page trees as markdown and assembles generation prompts from them.
package prompt

import (
	"strings"

	"github.com/temirov/pagegen/internal/notion"
	"github.com/temirov/pagegen/internal/pagetree"
)

const (
	maxHeadingLevel     = 6
	minHeadingLevel     = 1
	pageHeadingOffset   = 2
	headingRune         = "#"
	bulletPrefix        = "• "
	numberedPrefix      = "1. "
	checkedPrefix       = "✅ "
	uncheckedPrefix     = "⬜ "
	togglePrefix        = "➤ "
	codeFence           = "```"
	defaultImageCaption = "Image"
	imagePlaceholderURL = "image_url"
	lineBreak           = "\n"
	paragraphBreak      = "\n\n"
)

// HeadingMarker returns the heading prefix for a page nested level steps below a root,
// capped at the deepest markdown heading.
func HeadingMarker(level int) string {
	return headingPrefix(level + pageHeadingOffset)
}

func headingPrefix(size int) string {
	if size > maxHeadingLevel {
		size = maxHeadingLevel
	}
	if size < minHeadingLevel {
		size = minHeadingLevel
	}
	return strings.Repeat(headingRune, size)
}

// FormatTree renders a page, its blocks and its subpages as markdown.
func FormatTree(tree pagetree.Tree, title string, level int) string {
	var builder strings.Builder
	writeTree(&builder, tree, title, level)
	return builder.String()
}

// FormatTrees renders each non-empty tree at level zero and concatenates them in order.
func FormatTrees(trees []pagetree.Tree) string {
	var builder strings.Builder
	for _, tree := range trees {
		if tree.IsEmpty() {
			continue
		}
		writeTree(&builder, tree, pagetree.ExtractTitle(tree.Page), 0)
	}
	return builder.String()
}

func writeTree(builder *strings.Builder, tree pagetree.Tree, title string, level int) {
	builder.WriteString(HeadingMarker(level))
	builder.WriteString(" ")
	builder.WriteString(title)
	builder.WriteString(paragraphBreak)
	for _, block := range tree.Blocks {
		builder.WriteString(renderBlockSafely(block, level))
	}
	for _, subpage := range tree.Subpages {
		if subpage.IsEmpty() {
			continue
		}
		writeTree(builder, subpage, pagetree.ExtractTitle(subpage.Page), level+1)
	}
}

func renderBlockSafely(block notion.Block, level int) (rendered string) {
	defer func() {
		if recover() != nil {
			rendered = ""
		}
	}()
	return renderBlock(block, level)
}

// renderBlock returns the markdown for one block, or an empty string when the block has no
// textual rendition. Child references are rendered by recursion instead.
func renderBlock(block notion.Block, level int) string {
	switch typed := block.(type) {
	case notion.Paragraph:
		return textLine("", typed.Text, paragraphBreak)
	case notion.Heading:
		return textLine(headingPrefix(level+typed.Level)+" ", typed.Text, paragraphBreak)
	case notion.BulletedItem:
		return textLine(bulletPrefix, typed.Text, lineBreak)
	case notion.NumberedItem:
		return textLine(numberedPrefix, typed.Text, lineBreak)
	case notion.Todo:
		prefix := uncheckedPrefix
		if typed.Checked {
			prefix = checkedPrefix
		}
		return textLine(prefix, typed.Text, lineBreak)
	case notion.Toggle:
		return textLine(togglePrefix, typed.Text, lineBreak)
	case notion.Code:
		if typed.Text == "" {
			return ""
		}
		return codeFence + typed.Language + lineBreak + typed.Text + lineBreak + codeFence + paragraphBreak
	case notion.Image:
		return renderImage(typed)
	default:
		return ""
	}
}

func textLine(prefix string, text string, terminator string) string {
	if text == "" {
		return ""
	}
	return prefix + text + terminator
}

func renderImage(image notion.Image) string {
	caption := image.Caption
	if caption == "" {
		caption = defaultImageCaption
	}
	location := image.FileURL
	if location == "" {
		location = image.ExternalURL
	}
	if location == "" {
		location = imagePlaceholderURL
	}
	return "![" + caption + "](" + location + ")" + paragraphBreak
}
